package student

import (
	"context"
	"time"

	"github.com/trezcool/roster/core"
)

var (
	ErrNotFound    = core.NewNotFoundError("Student not found")
	ErrEmailExists = core.NewDuplicateKeyError("email", "Email already exists.")
)

type (
	Repository interface {
		// CreateStudent fails with ErrEmailExists when the email is taken.
		CreateStudent(ctx context.Context, s Student) (Student, error)
		// QueryStudents returns one page of the students matching filter and the total match count.
		QueryStudents(ctx context.Context, filter QueryFilter, page core.Pagination, ordering []core.DBOrdering) ([]Student, int64, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		// UpdateStudent fails with ErrEmailExists when another student holds the email.
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) (Student, error)
	}

	Service interface {
		Create(ctx context.Context, owner string, data Data, profileImage string) (Student, error)
		List(ctx context.Context, filter QueryFilter, page core.Pagination, ordering []core.DBOrdering) (Page, error)
		GetByID(ctx context.Context, id string) (Student, error)
		// Update overwrites every Data field; profileImage replaces the current image when not empty.
		Update(ctx context.Context, id string, data Data, profileImage string) (Student, error)
		Delete(ctx context.Context, id string) (Student, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, owner string, data Data, profileImage string) (Student, error) {
	now := time.Now().UTC()
	s := Student{
		Owner:        owner,
		ProfileImage: profileImage,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	data.apply(&s)
	return svc.repo.CreateStudent(ctx, s)
}

func (svc *service) List(ctx context.Context, filter QueryFilter, page core.Pagination, ordering []core.DBOrdering) (Page, error) {
	filter.Clean()
	students, total, err := svc.repo.QueryStudents(ctx, filter, page, ordering)
	if err != nil {
		return Page{}, err
	}
	if students == nil {
		students = []Student{}
	}
	return Page{
		Students:    students,
		CurrentPage: page.Page,
		TotalPages:  page.TotalPages(total),
		TotalCount:  total,
	}, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, data Data, profileImage string) (Student, error) {
	s, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	data.apply(&s)
	if profileImage != "" {
		s.ProfileImage = profileImage
	}
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, s)
}

func (svc *service) Delete(ctx context.Context, id string) (Student, error) {
	return svc.repo.DeleteStudent(ctx, id)
}
