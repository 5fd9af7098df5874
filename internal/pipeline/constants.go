package pipeline

// Portal pages and selectors of the login flow.
const (
	// LoginPath serves the identification form.
	LoginPath = "/fr/identification.jsp"

	// LoginFormSelector locates the identification form.
	LoginFormSelector = `form[name="acces_identification"]`

	// LogoutSelector is present on every authenticated page.
	LogoutSelector = `a[href="/logoff"]`

	// Form field names of the credentials.
	loginField    = "login"
	passwordField = "passwd"

	// MaxHistoryYears is how far back the portal lets archives go.
	MaxHistoryYears = 2
)
