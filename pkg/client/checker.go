package client

import (
	"context"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/swanix/labgate/pkg/common"
	"github.com/swanix/labgate/pkg/session"
)

type CheckState string

const (
	Unchecked       CheckState = "Unchecked"
	Checking        CheckState = "Checking"
	Authenticated   CheckState = "Authenticated"
	Unauthenticated CheckState = "Unauthenticated"
	Errored         CheckState = "Errored"
)

type ResultStatus string

const (
	StatusAuthenticated   ResultStatus = "Authenticated"
	StatusUnauthenticated ResultStatus = "Unauthenticated"
	StatusFailed          ResultStatus = "Failed"
)

// AuthResult is the tagged outcome of one auth check. Callers match on
// Status instead of passing callbacks.
type AuthResult struct {
	Status ResultStatus
	User   *common.PublicUser
	Err    error
}

func AuthenticatedResult(user *common.PublicUser) AuthResult {
	return AuthResult{Status: StatusAuthenticated, User: user}
}

func UnauthenticatedResult() AuthResult {
	return AuthResult{Status: StatusUnauthenticated}
}

func FailedResult(err error) AuthResult {
	return AuthResult{Status: StatusFailed, Err: err}
}

// Checker composes the session store, the pure validity checks and the
// remote verifier. The local expiry check is an optimization to avoid
// unnecessary network calls, not a substitute for server confirmation.
type Checker struct {
	store           *session.Store
	verifier        *Verifier
	navigator       Navigator
	loginURL        string
	redirectToLogin bool
	state           CheckState
	now             func() time.Time
}

type CheckerOptions struct {
	Navigator       Navigator
	LoginURL        string
	RedirectToLogin bool
}

func NewChecker(store *session.Store, verifier *Verifier, options CheckerOptions) *Checker {
	if store == nil {
		panic("session Store is required to create Checker")
	}
	if verifier == nil {
		panic("Verifier is required to create Checker")
	}
	return &Checker{
		store:           store,
		verifier:        verifier,
		navigator:       options.Navigator,
		loginURL:        options.LoginURL,
		redirectToLogin: options.RedirectToLogin,
		state:           Unchecked,
		now:             time.Now,
	}
}

func (checker *Checker) State() CheckState {
	return checker.state
}

// CheckAuth runs the full check: structural and expiry validation of
// the stored record short-circuits without a network call; otherwise
// the verdict comes from the verification endpoint. Any failure clears
// the local record so a half-valid session is never left cached.
func (checker *Checker) CheckAuth(ctx context.Context) AuthResult {
	checker.state = Checking

	record, found := checker.store.Load()
	if !found {
		log.Debug("No session record found. Skipping server verification.")
		return checker.unauthenticated()
	}
	if session.IsExpired(record, checker.now()) {
		log.Debug("Session record expired. Clearing and skipping server verification.")
		checker.store.Clear()
		return checker.unauthenticated()
	}

	verdict, err := checker.verifier.Verify(ctx, record)
	if err != nil {
		checker.store.Clear()
		checker.state = Errored
		log.Errorf("Session verification error. Reason: %v", err)
		return FailedResult(err)
	}

	if !verdict.Authenticated {
		log.Debug("Server rejected session.")
		checker.store.Clear()
		return checker.unauthenticated()
	}

	checker.state = Authenticated
	return AuthenticatedResult(verdict.User)
}

// CheckAuthSync performs the structural and expiry checks only.
func (checker *Checker) CheckAuthSync() bool {
	record, found := checker.store.Load()
	if !found {
		return false
	}
	return session.IsStructurallyValid(record) && !session.IsExpired(record, checker.now())
}

func (checker *Checker) CurrentUser() *common.UserInfo {
	record, found := checker.store.Load()
	if !found {
		return nil
	}
	stored, err := record.Session()
	if err != nil {
		log.Errorf("Parsing stored session error. Reason: %v", err)
		return nil
	}
	return &stored.User
}

func (checker *Checker) HasRole(role string) bool {
	user := checker.CurrentUser()
	if user == nil {
		return false
	}
	return contains(user.Roles, role)
}

func (checker *Checker) HasPermission(permission string) bool {
	user := checker.CurrentUser()
	if user == nil {
		return false
	}
	return contains(user.Permissions, permission)
}

func (checker *Checker) unauthenticated() AuthResult {
	checker.state = Unauthenticated
	if checker.redirectToLogin && checker.navigator != nil {
		target := checker.loginURL + "?redirect=" + url.QueryEscape(checker.navigator.CurrentPath())
		log.Debugf("Redirecting to login: %v", target)
		checker.navigator.RedirectTo(target)
	}
	return UnauthenticatedResult()
}

func contains(values []string, wanted string) bool {
	for _, value := range values {
		if value == wanted {
			return true
		}
	}
	return false
}
