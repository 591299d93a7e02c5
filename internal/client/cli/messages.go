package cli

// messages is the English catalog for the message keys the flows produce.
var messages = map[string]string{
	"onboarding_page1_title":       "Big ideas, small bites",
	"onboarding_page1_description": "Key insights from bestselling books in fifteen minutes.",
	"onboarding_page2_title":       "Read or listen",
	"onboarding_page2_description": "Every summary comes as text and audio.",
	"onboarding_page3_title":       "Build a habit",
	"onboarding_page3_description": "Pick what you care about and we will keep you on track.",
	"onboarding_continue_button":   "Continue",
	"onboarding_start_button":      "Get started",

	"error_name_empty":           "Please enter your name.",
	"error_email_empty":          "Please enter your email.",
	"error_email_invalid":        "That email address doesn't look right.",
	"error_password_empty":       "Please enter a password.",
	"error_password_short":       "Password must be at least 6 characters.",
	"error_wrong_password":       "Wrong password.",
	"error_user_not_found":       "No account with that email.",
	"error_email_already_in_use": "An account with that email already exists.",
	"error_weak_password":        "That password is too weak.",
	"error_network_error":        "Network error. Check your connection.",
	"error_generic_auth_failed":  "Something went wrong. Please try again.",
	"error_generic_login_failed": "Could not sign in. Please try again.",

	"alert_password_reset_sent": "Check your inbox for a password reset link.",

	"habit_reading":    "Reading",
	"habit_sports":     "Sports",
	"habit_meditation": "Meditation",
	"habit_writing":    "Writing",
	"habit_music":      "Music",
	"habit_coding":     "Coding",
}

// text resolves key, falling back to the key itself.
func text(key string) string {
	if s, ok := messages[key]; ok {
		return s
	}
	return key
}
