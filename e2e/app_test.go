package e2e

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite drives the server through a real browser
type E2ETestSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	expect  playwright.PlaywrightAssertions
}

// SetupSuite runs once before all tests
func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	browser, err := pw.Chromium.Launch()
	require.NoError(suite.T(), err, "could not launch chromium")
	suite.browser = browser

	suite.expect = playwright.NewPlaywrightAssertions()
}

// TearDownSuite runs once after all tests
func (suite *E2ETestSuite) TearDownSuite() {
	if suite.browser != nil {
		suite.browser.Close()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

// SetupTest opens a fresh page, which lands on the login form.
func (suite *E2ETestSuite) SetupTest() {
	page, err := suite.browser.NewPage()
	require.NoError(suite.T(), err, "could not create page")
	suite.page = page

	_, err = suite.page.Goto(appURL)
	require.NoError(suite.T(), err, "could not navigate to app")
}

// TearDownTest runs after each test
func (suite *E2ETestSuite) TearDownTest() {
	if suite.page != nil {
		suite.page.Close()
	}
}

func (suite *E2ETestSuite) login(username, password string) {
	err := suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "login form not visible")

	err = suite.page.Locator("input[name=username]").Fill(username)
	require.NoError(suite.T(), err, "failed to fill username")

	err = suite.page.Locator("input[name=password]").Fill(password)
	require.NoError(suite.T(), err, "failed to fill password")

	err = suite.page.Locator(".login-btn").Click()
	require.NoError(suite.T(), err, "failed to click login")

	err = suite.expect.Locator(suite.page.Locator(".dashboard-screen")).ToBeVisible()
	require.NoError(suite.T(), err, "did not land on the dashboard after login")
}

func (suite *E2ETestSuite) TestCompleteUserFlow() {
	suite.login(adminUser, adminPassword)

	err := suite.expect.Locator(suite.page.Locator(".summary small")).ToContainText("Spent in")
	require.NoError(suite.T(), err, "dashboard heading mismatch")

	err = suite.page.Locator(".fab-add").Click()
	require.NoError(suite.T(), err, "failed to click add button")

	err = suite.expect.Locator(suite.page.Locator("#expense-form")).ToBeVisible()
	require.NoError(suite.T(), err, "expense form not visible")

	err = suite.page.Locator("input[name=amount]").Fill("12.50")
	require.NoError(suite.T(), err, "failed to fill amount")

	err = suite.page.Locator("textarea[name=note]").Fill("Lunch Test")
	require.NoError(suite.T(), err, "failed to fill note")

	_, err = suite.page.Locator("select[name=category]").SelectOption(playwright.SelectOptionValues{
		Labels: &[]string{"Food"},
	})
	require.NoError(suite.T(), err, "failed to select category")

	err = suite.page.Locator("button.submit").Click()
	require.NoError(suite.T(), err, "failed to submit expense")

	err = suite.expect.Locator(suite.page.Locator(".flash")).ToHaveText("Expense added successfully!")
	require.NoError(suite.T(), err, "missing confirmation")

	err = suite.expect.Locator(suite.page.Locator(".expense-item")).ToHaveCount(1)
	require.NoError(suite.T(), err, "expense item count mismatch")

	item := suite.page.Locator(".expense-item").First()
	err = suite.expect.Locator(item.Locator(".expense-details strong")).ToContainText("Food")
	require.NoError(suite.T(), err, "category mismatch")

	err = suite.expect.Locator(item.Locator(".expense-amount")).ToContainText("12.50")
	require.NoError(suite.T(), err, "amount mismatch")

	// The yearly summary picks the new expense up.
	_, err = suite.page.Goto(appURL + "/summary")
	require.NoError(suite.T(), err)
	err = suite.expect.Locator(suite.page.Locator(".yearly-total")).ToHaveText("12.50")
	require.NoError(suite.T(), err, "summary total mismatch")

	// Deleting goes through a confirmation page.
	_, err = suite.page.Goto(appURL + "/expenses")
	require.NoError(suite.T(), err)
	err = suite.page.Locator(".expense-item a:text-is('Delete')").First().Click()
	require.NoError(suite.T(), err, "failed to open delete confirmation")

	err = suite.expect.Locator(suite.page.Locator(".confirm-screen")).ToBeVisible()
	require.NoError(suite.T(), err, "confirmation page not visible")

	err = suite.page.Locator("button.danger").Click()
	require.NoError(suite.T(), err, "failed to confirm delete")

	err = suite.expect.Locator(suite.page.Locator(".expense-item")).ToHaveCount(0)
	require.NoError(suite.T(), err, "expense still listed after delete")
}

func (suite *E2ETestSuite) TestRegistration() {
	_, err := suite.page.Goto(appURL + "/register")
	require.NoError(suite.T(), err)

	fields := map[string]string{
		"username":  "newcomer",
		"email":     "newcomer@example.com",
		"password1": "quiet-harbor-77",
		"password2": "quiet-harbor-77",
	}
	for name, value := range fields {
		err = suite.page.Locator("input[name=" + name + "]").Fill(value)
		require.NoError(suite.T(), err, "failed to fill %s", name)
	}

	err = suite.page.Locator("form.register-form button[type=submit]").Click()
	require.NoError(suite.T(), err, "failed to submit registration")

	err = suite.expect.Locator(suite.page.Locator(".flash")).ToHaveText("Account created successfully! You can now log in.")
	require.NoError(suite.T(), err, "missing registration confirmation")

	suite.login("newcomer", "quiet-harbor-77")

	// Seeded categories plus the global one are offered on the expense form.
	_, err = suite.page.Goto(appURL + "/expenses/add")
	require.NoError(suite.T(), err)
	err = suite.expect.Locator(suite.page.Locator("select[name=category] option")).ToHaveCount(9)
	require.NoError(suite.T(), err, "unexpected category options")
}

// TestE2ESuite runs the e2e test suite
func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
