package constants

// Fallback toast texts used when the API response carries no message.
const (
	MsgCreated = "%s created successfully"
	MsgUpdated = "%s updated successfully"
	MsgDeleted = "%s deleted successfully"
)

const (
	MsgLoadFailed          = "Error loading %s: %s"
	MsgFormLoadFailed      = "Could not open the %s form: %s"
	MsgDashboardFailed     = "Error loading dashboard data: %s"
	MsgReportsFailed       = "Error loading reports: %s"
	MsgValidationFailed    = "Please fix the highlighted fields: %s"
	MsgSaveFailed          = "Error saving %s: %s"
	MsgDeleteFailed        = "Error deleting %s: %s"
	MsgSessionExpired      = "This form is no longer open. Please start again."
	MsgRateLimited         = "Too many changes in a short time. Please wait a moment."
	MsgUnknownResource     = "Unknown section"
	MsgModalReloadFailed   = "Could not reopen the form: %s"
	MsgDeleteConfirmPrompt = "Are you sure you want to delete %s? This cannot be undone."
)

// Validation error codes, in the ozzo-validation code style.
const (
	CodeNotNumber  = "airops.field.not_number"
	CodeNotInteger = "airops.field.not_integer"
	CodeNotDate    = "airops.field.not_date"
	CodeNotOption  = "airops.field.not_option"
)

// Cookie names.
const (
	CookieClientID = "airops_client"
	CookieTheme    = "theme_preference"
)
