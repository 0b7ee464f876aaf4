package model

// RegisterRequest is the payload for POST /register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest is the payload for POST /login. The identifier may
// arrive under any of the three keys; the first non-empty one wins.
type LoginRequest struct {
	Email      string `json:"email"`
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

// LoginIdentifier returns the email-or-name the caller logged in with.
func (r LoginRequest) LoginIdentifier() string {
	for _, v := range []string{r.Email, r.Identifier, r.Username} {
		if v != "" {
			return v
		}
	}
	return ""
}

// ForgotPasswordRequest is the payload for POST /forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the payload for POST /reset-password.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// CreateBookingRequest is the payload for POST /bookings. Quantity
// defaults to 1 when omitted.
type CreateBookingRequest struct {
	EventID  string `json:"event_id"`
	Quantity *int   `json:"quantity"`
}

// MessageResponse is the standard JSON envelope for messages and errors.
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterResponse is returned by a successful registration.
type RegisterResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	UserID  string `json:"user_id"`
	Role    Role   `json:"role"`
	Name    string `json:"name"`
}

// EventView is the public rendering of an event.
type EventView struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	ImageURL    *string `json:"image_url"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Location    string  `json:"location"`
	Capacity    int     `json:"capacity"`
	TicketPrice int64   `json:"ticket_price"`
	OrganizerID string  `json:"organizer_id"`
}

// EventWriteResponse is returned by event create and update.
type EventWriteResponse struct {
	Message  string  `json:"message"`
	ID       string  `json:"id,omitempty"`
	ImageURL *string `json:"image_url"`
}

// BookingResponse is returned by a successful booking.
type BookingResponse struct {
	Message     string `json:"message"`
	BookingID   string `json:"booking_id"`
	BookingCode string `json:"booking_code"`
	TotalPrice  int64  `json:"total_price"`
}

// BookingView is one entry of GET /my-bookings.
type BookingView struct {
	ID          string  `json:"id"`
	BookingCode string  `json:"booking_code"`
	EventTitle  string  `json:"event_title"`
	EventDate   *string `json:"event_date"`
	Quantity    int     `json:"quantity"`
	TotalPrice  int64   `json:"total_price"`
	Status      string  `json:"status"`
	BookingDate string  `json:"booking_date"`
}

// UserView is the admin and profile rendering of a user.
type UserView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"created_at"`
}
