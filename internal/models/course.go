package models

// Course is an entry of the course catalog.
type Course struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Short       string   `json:"short"`
	Description string   `json:"description"`
	Duration    string   `json:"duration,omitempty"`
	Activities  []string `json:"activities,omitempty"`
}

// Ref returns the lookup key used to find the course's sections.
func (c Course) Ref() CourseRef {
	return CourseRef{ID: c.ID, Title: c.Title}
}

// CourseDetail is a course together with its class sections.
type CourseDetail struct {
	Course
	Sections []ClassSection `json:"sections"`
}
