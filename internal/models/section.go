package models

// ClassSection is a scheduled offering ("turma") of a course with a finite
// number of seats. Field names match the stored "classes" document.
type ClassSection struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	CourseID  string   `json:"courseId,omitempty"`
	Course    string   `json:"course,omitempty"`
	Professor string   `json:"professor,omitempty"`
	Vacancies int      `json:"vacancies"`
	Schedule  string   `json:"schedule,omitempty"`
	Students  []string `json:"students"`
}

// Capacity is the total number of seats: open vacancies plus enrolled students.
func (s ClassSection) Capacity() int {
	return s.Vacancies + len(s.Students)
}

// Full reports whether the section can admit no further students.
func (s ClassSection) Full() bool {
	return s.Vacancies <= 0
}

// HasStudent reports whether userID is on the roster.
func (s ClassSection) HasStudent(userID string) bool {
	return s.studentIndex(userID) >= 0
}

func (s ClassSection) studentIndex(userID string) int {
	for i, id := range s.Students {
		if id == userID {
			return i
		}
	}
	return -1
}

// AddStudent appends userID and takes one vacancy.
func (s *ClassSection) AddStudent(userID string) {
	s.Students = append(s.Students, userID)
	s.Vacancies--
}

// RemoveStudent drops userID from the roster and frees one vacancy. It
// returns false, leaving the section untouched, when userID is absent.
func (s *ClassSection) RemoveStudent(userID string) bool {
	i := s.studentIndex(userID)
	if i < 0 {
		return false
	}
	students := make([]string, 0, len(s.Students)-1)
	students = append(students, s.Students[:i]...)
	students = append(students, s.Students[i+1:]...)
	s.Students = students
	s.Vacancies++
	return true
}

// Clone returns a deep copy safe to hand to callers.
func (s ClassSection) Clone() ClassSection {
	out := s
	out.Students = append(make([]string, 0, len(s.Students)), s.Students...)
	return out
}

// BelongsTo reports whether the section is offered for ref. A section linked
// by courseId matches on id only; otherwise the course title is compared.
func (s ClassSection) BelongsTo(ref CourseRef) bool {
	if s.CourseID != "" {
		return s.CourseID == ref.ID
	}
	return s.Course != "" && s.Course == ref.Title
}

// CourseRef identifies a catalog course when looking up its sections.
type CourseRef struct {
	ID    string
	Title string
}

// SeatSummary is the read-only seat view of a section.
type SeatSummary struct {
	SectionID string `json:"sectionId"`
	Enrolled  int    `json:"enrolled"`
	Vacancies int    `json:"vacancies"`
	Capacity  int    `json:"capacity"`
}
