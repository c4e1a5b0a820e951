package queue

// Routing keys on the auth events exchange.
const (
	KeyUserRegistered = "user.registered"
	KeyUserLoggedIn   = "user.logged_in"
	KeyUserDeleted    = "user.deleted"
	KeyResetRequested = "password.reset_requested"
	KeyResetCompleted = "password.reset_completed"
	KeyMailSend       = "mail.send"
)

type UserRegistered struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	AuthType string `json:"auth_type"`
}

type UserLoggedIn struct {
	UserID   string `json:"user_id"`
	AuthType string `json:"auth_type"`
}

type UserDeleted struct {
	UserID string `json:"user_id"`
}

type PasswordReset struct {
	UserID string `json:"user_id"`
}

// MailJob is a queued outbound email, consumed by the notifier.
type MailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}
