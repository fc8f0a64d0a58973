package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/promstudy/promstudy/internal/client/api"
)

var (
	// ErrOperationInProgress is returned when another Init, Login or
	// SignupAndCreateProfile call has not finished yet.
	ErrOperationInProgress = errors.New("another session operation is in progress")

	// ErrSessionReset is returned by an operation whose result was discarded
	// because Logout ran while it was in flight.
	ErrSessionReset = errors.New("session was reset while the operation was in flight")

	// ErrTokenExpired marks a stored JWT whose exp claim is already in the past.
	ErrTokenExpired = errors.New("token expired")
)

// User-facing messages.
const (
	MsgInvalidCredential   = "이메일 또는 비밀번호가 일치하지 않습니다."
	MsgUserNotFound        = "존재하지 않는 사용자입니다."
	MsgLoginFailed         = "로그인에 실패했습니다."
	MsgProfileUnavailable  = "사용자 정보를 불러오지 못했습니다."
	MsgEmailInUse          = "이미 사용 중인 이메일입니다."
	MsgUsernameInUse       = "이미 사용 중인 아이디입니다."
	MsgCredentialsRequired = "이메일과 비밀번호를 모두 입력해 주세요."
	MsgPasswordTooShort    = "비밀번호는 6자리 이상이어야 합니다."
	MsgProfileIncomplete   = "모든 프로필 정보를 입력해 주세요."
	MsgSignupFailed        = "회원가입에 실패했습니다."
	MsgServerUnavailable   = "서버에 연결할 수 없습니다."
)

// AuthenticationError reports a rejected login.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string { return e.Message }
func (e *AuthenticationError) Unwrap() error { return e.Err }

// RegistrationError reports a rejected or invalid sign-up.
type RegistrationError struct {
	Message string
	Err     error
}

func (e *RegistrationError) Error() string { return e.Message }
func (e *RegistrationError) Unwrap() error { return e.Err }

// ProfileFetchError reports that a token could not be turned into a profile.
type ProfileFetchError struct {
	Err error
}

func (e *ProfileFetchError) Error() string { return fmt.Sprintf("profile fetch: %v", e.Err) }
func (e *ProfileFetchError) Unwrap() error { return e.Err }

// StatsFetchError reports a failed statistics read. It is only logged.
type StatsFetchError struct {
	Endpoint string
	Err      error
}

func (e *StatsFetchError) Error() string {
	return fmt.Sprintf("stats %s: %v", e.Endpoint, e.Err)
}
func (e *StatsFetchError) Unwrap() error { return e.Err }

func newAuthenticationError(err error) *AuthenticationError {
	return &AuthenticationError{Message: authenticationMessage(err), Err: err}
}

func newRegistrationError(err error) *RegistrationError {
	return &RegistrationError{Message: registrationMessage(err), Err: err}
}

func authenticationMessage(err error) string {
	detail := api.DetailOf(err)
	lower := strings.ToLower(detail)

	switch {
	case containsAny(lower, "invalid credential", "invalid-credential", "incorrect username or password"):
		return MsgInvalidCredential
	case containsAny(lower, "user not found", "user-not-found"):
		return MsgUserNotFound
	case api.IsStatus(err, http.StatusUnauthorized):
		return MsgInvalidCredential
	case api.IsStatus(err, http.StatusNotFound):
		return MsgUserNotFound
	case errors.Is(err, api.ErrUnavailable):
		return MsgServerUnavailable
	case detail != "":
		return detail
	default:
		return MsgLoginFailed
	}
}

func registrationMessage(err error) string {
	detail := api.DetailOf(err)
	lower := strings.ToLower(detail)

	switch {
	case containsAny(lower, "email already registered", "email already in use", "email-already-in-use"):
		return MsgEmailInUse
	case containsAny(lower, "username already registered"):
		return MsgUsernameInUse
	case errors.Is(err, api.ErrUnavailable):
		return MsgServerUnavailable
	case detail != "":
		return detail
	default:
		return MsgSignupFailed
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
