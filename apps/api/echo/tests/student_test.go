package tests

import (
	"io"
	"math"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/roster/core/student"
	"github.com/trezcool/roster/core/token"
	"github.com/trezcool/roster/tests"
)

const validStudentJSON = `{"firstName":"Grace","lastName":"Hopper","standard":5,"division":"B","gender":"Female",` +
	`"email":"grace@school.test","mobileNumber":9876543210,"address":"1 Navy Yard"}`

func validStudentFields() map[string]string {
	return map[string]string{
		"firstName":    "Grace",
		"lastName":     "Hopper",
		"standard":     "7",
		"division":     "C",
		"gender":       "female",
		"email":        "grace@school.test",
		"mobileNumber": "9876543210",
		"address":      "1 Navy Yard",
	}
}

func Test_studentApi_create(t *testing.T) {
	app := setup(t)
	acc := testutil.CreateAccount(t, app.accRepo, "Alpha", "School", "alpha@school.test", "")
	tok := app.schoolToken(t, acc)
	testutil.CreateStudent(t, app.studentRepo, "Taken", "Student", "taken@school.test", "0000000001")

	tests := []httpTest{
		{name: "no credential", body: []byte(validStudentJSON), wantCode: http.StatusForbidden, wantData: marchallObj(t, fail("Unauthorized"))},
		{
			name: "required fields", token: tok, body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, fail("Validation errors", map[string]string{
				"firstName":    "this field is required",
				"lastName":     "this field is required",
				"standard":     "this field is required",
				"division":     "this field is required",
				"gender":       "this field is required",
				"email":        "this field is required",
				"mobileNumber": "this field is required",
				"address":      "this field is required",
			})),
		},
		{
			name: "every rule reported at once", token: tok,
			body: []byte(`{"firstName":"Gra","lastName":"Hopper","standard":"five","division":"   ","gender":"robot",` +
				`"email":"grace","mobileNumber":"98765","address":"no"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, fail("Validation errors", map[string]string{
				"firstName":    "firstName must be at least 5 characters long",
				"standard":     "standard must be a numeric value",
				"division":     "this field is required",
				"gender":       "gender must be one of: female male other",
				"email":        "email must have a valid format",
				"mobileNumber": "mobileNumber must have exactly 10 digits",
				"address":      "address must be at least 3 characters long",
			})),
		},
		{
			name: "standard out of range", token: tok,
			body: []byte(`{"firstName":"Grace","lastName":"Hopper","standard":99999999999999999999,"division":"B","gender":"female",` +
				`"email":"grace@school.test","mobileNumber":"9876543210","address":"1 Navy Yard"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, fail("Validation errors", map[string]string{"standard": "standard is out of range"})),
		},
		{
			name: "email taken", token: tok,
			body: []byte(`{"firstName":"Grace","lastName":"Hopper","standard":5,"division":"B","gender":"female",` +
				`"email":"TAKEN@school.test","mobileNumber":"9876543210","address":"1 Navy Yard"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, fail("Email already exists.", map[string]string{"email": "Email already exists."})),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/student/add"
	}
	runHTTPTests(t, app, tests)

	t.Run("added from json", func(t *testing.T) {
		rec := app.serve(newAuthRequest(http.MethodPost, "/student/add", tok, []byte(validStudentJSON)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		data := unmarshalBody(t, rec)
		assert.Equal(t, "Student added successfully.", data["message"])
		s := data["student"].(map[string]interface{})
		assert.Equal(t, acc.ID, s["user"])
		assert.Equal(t, float64(5), s["standard"])
		assert.Equal(t, "female", s["gender"])
		assert.Equal(t, "9876543210", s["mobileNumber"])
		assert.NotContains(t, s, "profileImage")
		assert.NotContains(t, s, "profileImageURL")

		claims, err := app.issuer.Verify(data["token"].(string))
		require.NoError(t, err)
		assert.Equal(t, s["_id"], claims.Subject)
		assert.Equal(t, token.KindStudent, claims.Kind)
		assert.WithinDuration(t, time.Now().Add(4*time.Hour), claims.ExpiresAt.Time, time.Minute)
	})

	t.Run("added from a form with a profile image", func(t *testing.T) {
		fields := validStudentFields()
		fields["email"] = "form@school.test"
		req := newMultipartRequest(t, http.MethodPost, "/student/add", tok, fields,
			formFile{field: "profileImage", filename: "me.png", contentType: "image/png", content: pngBytes(1024)})
		rec := app.serve(req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		s := unmarshalBody(t, rec)["student"].(map[string]interface{})
		assert.Equal(t, float64(7), s["standard"])
		name := s["profileImage"].(string)
		assert.Regexp(t, `^profileImage_\d+_[0-9a-f]{8}\.png$`, name)
		assert.Equal(t, testBaseURL+"/profile/"+name, s["profileImageURL"])

		rc, err := app.store.Open(ctxBg(), name)
		require.NoError(t, err)
		defer rc.Close()
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Len(t, b, 1024)
	})

	t.Run("rejected form keeps no image", func(t *testing.T) {
		app := setup(t)
		tok := app.schoolToken(t, testutil.CreateAccount(t, app.accRepo, "Alpha", "School", "alpha@school.test", ""))
		testutil.CreateStudent(t, app.studentRepo, "Taken", "Student", "taken@school.test", "0000000001")

		fields := validStudentFields()
		fields["email"] = "taken@school.test"
		req := newMultipartRequest(t, http.MethodPost, "/student/add", tok, fields,
			formFile{field: "profileImage", filename: "me.png", contentType: "image/png", content: pngBytes(64)})
		rec := app.serve(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		entries, err := os.ReadDir(app.conf.Uploads.Dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("unsupported profile image", func(t *testing.T) {
		fields := validStudentFields()
		fields["email"] = "gif@school.test"
		req := newMultipartRequest(t, http.MethodPost, "/student/add", tok, fields,
			formFile{field: "profileImage", filename: "me.gif", contentType: "image/gif", content: []byte("GIF89a")})
		rec := app.serve(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, string(marchallObj(t, fail("Invalid file type. Only JPEG, PNG, and JPG are allowed."))), rec.Body.String())
	})
}

func Test_studentApi_query(t *testing.T) {
	app := setup(t)
	tok := app.schoolToken(t, testutil.CreateAccount(t, app.accRepo, "Alpha", "School", "alpha@school.test", ""))
	students := testutil.CreateStudents(t, app.studentRepo, 12)

	views := func(ss ...student.Student) []studentOut {
		out := make([]studentOut, 0, len(ss))
		for _, s := range ss {
			out = append(out, studentView(s))
		}
		return out
	}
	page := func(ss []studentOut, current, pages int, total int64) []byte {
		return marchallObj(t, ok("Students retrieved successfully.", envelope{"data": envelope{
			"students":    ss,
			"currentPage": current,
			"totalPages":  pages,
			"totalCount":  total,
		}}))
	}

	tests := []httpTest{
		{name: "defaults", path: "/student/all", wantData: page(views(students[:10]...), 1, 2, 12)},
		{name: "second page", path: "/student/all?page=2&limit=5", wantData: page(views(students[5:10]...), 2, 3, 12)},
		{name: "last page", path: "/student/all?page=3&limit=5", wantData: page(views(students[10:]...), 3, 3, 12)},
		{name: "past the end", path: "/student/all?page=4&limit=5", wantData: page(views(), 4, 3, 12)},
		{name: "invalid paging falls back", path: "/student/all?page=-1&limit=lol", wantData: page(views(students[:10]...), 1, 2, 12)},
		{name: "huge limit is clamped", path: "/student/all?limit=9223372036854775807", wantData: page(views(students...), 1, 1, 12)},
		{name: "huge limit past the end", path: "/student/all?page=3&limit=9223372036854775807", wantData: page(views(), 3, 1, 12)},
		{
			name: "huge page is clamped", path: "/student/all?page=9223372036854775807&limit=5",
			wantData: page(views(), math.MaxInt32, 3, 12),
		},
		{
			name: "search by name", path: "/student/all?search=STUDENT1",
			wantData: page(views(students[0], students[9], students[10], students[11]), 1, 1, 4),
		},
		{name: "search by email", path: "/student/all?search=student12@", wantData: page(views(students[11]), 1, 1, 1)},
		{name: "search by mobile", path: "/student/all?search=0000000007", wantData: page(views(students[6]), 1, 1, 1)},
		{name: "search without match", path: "/student/all?search=nobody", wantData: page(views(), 1, 0, 0)},
		{name: "ordering", path: "/student/all?limit=3&ordering=-createdAt", wantData: page(views(students[11], students[10], students[9]), 1, 4, 12)},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
		tests[i].token = tok
	}
	runHTTPTests(t, app, tests)
}

func Test_studentApi_retrieve(t *testing.T) {
	app := setup(t)
	tok := app.schoolToken(t, testutil.CreateAccount(t, app.accRepo, "Alpha", "School", "alpha@school.test", ""))
	s := testutil.CreateStudent(t, app.studentRepo, "Grace", "Hopper", "grace@school.test", "9876543210")

	notFound := marchallObj(t, fail("Student not found"))
	tests := []httpTest{
		{name: "found", path: "/student/" + s.ID, wantData: marchallObj(t, ok("Student retrieved successfully.", envelope{"data": studentView(s)}))},
		{name: "unknown", path: "/student/5f1e2d3c4b5a697887766554", wantCode: http.StatusNotFound, wantData: notFound},
		{name: "malformed id", path: "/student/lol", wantCode: http.StatusNotFound, wantData: notFound},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
		tests[i].token = tok
	}
	runHTTPTests(t, app, tests)
}

func Test_studentApi_update(t *testing.T) {
	app := setup(t)
	tok := app.schoolToken(t, testutil.CreateAccount(t, app.accRepo, "Alpha", "School", "alpha@school.test", ""))
	grace := testutil.CreateStudent(t, app.studentRepo, "Grace", "Hopper", "grace@school.test", "9876543210")
	testutil.CreateStudent(t, app.studentRepo, "Alan", "Turing", "alan@school.test", "0123456789")

	tests := []httpTest{
		{
			name: "email of another student", path: "/student/update/" + grace.ID,
			body: []byte(`{"firstName":"Grace","lastName":"Hopper","standard":5,"division":"B","gender":"female",` +
				`"email":"alan@school.test","mobileNumber":"9876543210","address":"1 Navy Yard"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, fail("Email already exists.", map[string]string{"email": "Email already exists."})),
		},
		{
			name: "unknown", path: "/student/update/5f1e2d3c4b5a697887766554", body: []byte(validStudentJSON),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, fail("Student not found")),
		},
		{
			name: "invalid", path: "/student/update/" + grace.ID, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPut
		tests[i].token = tok
	}
	runHTTPTests(t, app, tests)

	t.Run("keeping its own email", func(t *testing.T) {
		body := []byte(`{"firstName":"Grace","lastName":"Brewster","standard":"6","division":"C","gender":"FEMALE",` +
			`"email":"grace@school.test","mobileNumber":"9876543210","address":"1 Navy Yard"}`)
		rec := app.serve(newAuthRequest(http.MethodPut, "/student/update/"+grace.ID, tok, body))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		data := unmarshalBody(t, rec)
		assert.Equal(t, "Student updated successfully.", data["message"])
		s := data["student"].(map[string]interface{})
		assert.Equal(t, grace.ID, s["_id"])
		assert.Equal(t, "Brewster", s["lastName"])
		assert.Equal(t, float64(6), s["standard"])

		stored, err := app.studentRepo.GetStudent(ctxBg(), grace.ID)
		require.NoError(t, err)
		assert.True(t, grace.CreatedAt.Equal(stored.CreatedAt))
		assert.True(t, stored.UpdatedAt.After(grace.UpdatedAt))
	})

	t.Run("replacing the profile image", func(t *testing.T) {
		send := func(name string) string {
			req := newMultipartRequest(t, http.MethodPut, "/student/update/"+grace.ID, tok, validStudentFields(),
				formFile{field: "profileImage", filename: name, contentType: "image/png", content: pngBytes(32)})
			rec := app.serve(req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			return unmarshalBody(t, rec)["student"].(map[string]interface{})["profileImage"].(string)
		}

		first := send("one.png")
		second := send("two.png")
		assert.NotEqual(t, first, second)

		_, err := app.store.Open(ctxBg(), first)
		assert.Error(t, err, "replaced image should be gone")
		rc, err := app.store.Open(ctxBg(), second)
		require.NoError(t, err)
		_ = rc.Close()

		// a form without an image keeps the current one
		rec := app.serve(newMultipartRequest(t, http.MethodPut, "/student/update/"+grace.ID, tok, validStudentFields()))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, second, unmarshalBody(t, rec)["student"].(map[string]interface{})["profileImage"])
	})
}

func Test_studentApi_delete(t *testing.T) {
	app := setup(t)
	tok := app.schoolToken(t, testutil.CreateAccount(t, app.accRepo, "Alpha", "School", "alpha@school.test", ""))

	fields := validStudentFields()
	req := newMultipartRequest(t, http.MethodPost, "/student/add", tok, fields,
		formFile{field: "profileImage", filename: "me.jpg", contentType: "image/jpeg", content: []byte("\xff\xd8\xff")})
	rec := app.serve(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	s := unmarshalBody(t, rec)["student"].(map[string]interface{})
	id, image := s["_id"].(string), s["profileImage"].(string)

	rec = app.serve(newAuthRequest(http.MethodDelete, "/student/delete/"+id, tok))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Student deleted successfully.", unmarshalBody(t, rec)["message"])

	_, err := app.store.Open(ctxBg(), image)
	assert.Error(t, err, "profile image should be deleted with the student")

	runHTTPTests(t, app, []httpTest{
		{name: "deleted twice", method: http.MethodDelete, path: "/student/delete/" + id, token: tok, wantCode: http.StatusNotFound, wantData: marchallObj(t, fail("Student not found"))},
		{name: "retrieve deleted", method: http.MethodGet, path: "/student/" + id, token: tok, wantCode: http.StatusNotFound},
	})
}
