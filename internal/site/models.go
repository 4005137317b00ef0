package site

// Typed views of the site collections. Records stay schema-less in the
// store; these structs validate form input and give handlers field names to
// work with. Binding rules use gin's validator tags.

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

type Event struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description,omitempty" binding:"max=5000"`
	Date        string `json:"date" binding:"required,datetime=2006-01-02"`
	Time        string `json:"time,omitempty" binding:"omitempty,len=5,datetime=15:04"`
	Location    string `json:"location,omitempty" binding:"max=200"`
	Category    string `json:"category,omitempty" binding:"max=60"`
	ImageKey    string `json:"imageKey,omitempty"`
}

type MenuItem struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name" binding:"required,max=120"`
	Description string  `json:"description,omitempty" binding:"max=1000"`
	Price       float64 `json:"price" binding:"gte=0"`
	Category    string  `json:"category,omitempty" binding:"max=60"`
	Available   bool    `json:"available"`
	ImageKey    string  `json:"imageKey,omitempty"`
}

type CafeBooking struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name" binding:"required,max=120"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone,omitempty" binding:"max=40"`
	Date      string `json:"date" binding:"required,datetime=2006-01-02"`
	Time      string `json:"time" binding:"required,len=5,datetime=15:04"`
	PartySize string `json:"partySize" binding:"required,numeric"`
	Notes     string `json:"notes,omitempty" binding:"max=1000"`
	Status    string `json:"status,omitempty" binding:"omitempty,oneof=pending confirmed cancelled"`
}

type Volunteer struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name" binding:"required,max=120"`
	Email        string   `json:"email" binding:"required,email"`
	Phone        string   `json:"phone,omitempty" binding:"max=40"`
	Interests    []string `json:"interests,omitempty" binding:"max=20"`
	Availability string   `json:"availability,omitempty" binding:"max=200"`
	Message      string   `json:"message,omitempty" binding:"max=2000"`
	Status       string   `json:"status,omitempty" binding:"omitempty,oneof=pending confirmed cancelled"`
}

type Course struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description,omitempty" binding:"max=5000"`
	Instructor  string `json:"instructor,omitempty" binding:"max=120"`
	Schedule    string `json:"schedule,omitempty" binding:"max=200"`
	Duration    string `json:"duration,omitempty" binding:"max=60"`
	Level       string `json:"level,omitempty" binding:"omitempty,oneof=beginner intermediate advanced"`
	Capacity    int    `json:"capacity,omitempty" binding:"gte=0"`
	ImageKey    string `json:"imageKey,omitempty"`
}

type Enrollment struct {
	ID         string `json:"id,omitempty"`
	CourseID   string `json:"courseId" binding:"required"`
	Name       string `json:"name" binding:"required,max=120"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone,omitempty" binding:"max=40"`
	Experience string `json:"experience,omitempty" binding:"max=2000"`
	Status     string `json:"status,omitempty" binding:"omitempty,oneof=pending confirmed cancelled"`
}

type ContactMessage struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name" binding:"required,max=120"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject,omitempty" binding:"max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}

// PrepareSubmission applies the defaults every public submission gets.
func PrepareSubmission(view any) {
	switch v := view.(type) {
	case *CafeBooking:
		v.Status = StatusPending
	case *Volunteer:
		v.Status = StatusPending
	case *Enrollment:
		v.Status = StatusPending
	}
}
