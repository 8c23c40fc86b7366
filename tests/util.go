package testutil

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/trezcool/roster/core/post"
	"github.com/trezcool/roster/core/school"
	"github.com/trezcool/roster/core/student"
)

func CreateAccount(
	t *testing.T,
	repo school.Repository,
	firstName, lastName, email, pwd string,
	createdAt ...time.Time,
) school.Account {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	acc := school.Account{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		MobileNumber: "0123456789",
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	}
	if pwd != "" {
		if err := acc.SetPassword(pwd); err != nil {
			t.Fatalf("CreateAccount() failed: %v", err)
		}
	}
	acc, err := repo.CreateAccount(context.Background(), acc)
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acc
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	firstName, lastName, email, mobile string,
	createdAt ...time.Time,
) student.Student {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	s, err := repo.CreateStudent(context.Background(), student.Student{
		FirstName:    firstName,
		LastName:     lastName,
		Standard:     5,
		Division:     "A",
		Gender:       student.GenderFemale,
		Email:        email,
		MobileNumber: mobile,
		Address:      "12 Main Street",
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

// CreateStudents creates n students, one second apart, named "Student<i>" with a matching email.
func CreateStudents(t *testing.T, repo student.Repository, n int) []student.Student {
	start := time.Now().UTC().Add(-time.Duration(n) * time.Second)
	students := make([]student.Student, 0, n)
	for i := 1; i <= n; i++ {
		students = append(students, CreateStudent(
			t, repo,
			"Student"+strconv.Itoa(i), "Lastname",
			fmt.Sprintf("student%d@school.test", i),
			fmt.Sprintf("%010d", i),
			start.Add(time.Duration(i)*time.Second),
		))
	}
	return students
}

func CreatePost(t *testing.T, repo post.Repository, name, description, location string) post.Post {
	now := time.Now().UTC()
	p, err := repo.CreatePost(context.Background(), post.Post{
		Name:        name,
		Description: description,
		Location:    location,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreatePost() failed: %v", err)
	}
	return p
}

func CreateComment(t *testing.T, repo post.Repository, postID, name, description string) post.Comment {
	c, err := repo.CreateComment(context.Background(), post.Comment{
		PostID:      postID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateComment() failed: %v", err)
	}
	return c
}
