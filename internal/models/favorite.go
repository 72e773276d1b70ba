package models

// FavoriteToggle reports the state of a course after a favorite toggle.
type FavoriteToggle struct {
	CourseID  string `json:"courseId"`
	Favorited bool   `json:"favorited"`
}
