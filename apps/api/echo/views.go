package echoapi

import (
	"github.com/trezcool/roster/core/post"
	"github.com/trezcool/roster/core/student"
)

const profilePath = "/profile/"

type imageURLs struct {
	baseURL string
}

func (u imageURLs) of(name string) string {
	if name == "" {
		return ""
	}
	return u.baseURL + profilePath + name
}

type studentView struct {
	student.Student
	ProfileImageURL string `json:"profileImageURL,omitempty"`
}

func (u imageURLs) student(s student.Student) studentView {
	return studentView{Student: s, ProfileImageURL: u.of(s.ProfileImage)}
}

func (u imageURLs) students(ss []student.Student) []studentView {
	views := make([]studentView, 0, len(ss))
	for _, s := range ss {
		views = append(views, u.student(s))
	}
	return views
}

type postView struct {
	post.Post
	PostImageURL string `json:"postImageURL,omitempty"`
}

func (u imageURLs) post(p post.Post) postView {
	return postView{Post: p, PostImageURL: u.of(p.Image)}
}

func (u imageURLs) posts(ps []post.Post) []postView {
	views := make([]postView, 0, len(ps))
	for _, p := range ps {
		views = append(views, u.post(p))
	}
	return views
}

type fileView struct {
	OriginalName string `json:"originalname"`
	Filename     string `json:"filename"`
	Size         string `json:"size"`
	ProfileURL   string `json:"profile_url"`
}
