package audit

import (
	"github.com/dmitrijs2005/babypal/internal/server/models"
)

// Status codes stored with each event.
const (
	StatusOK           = "200"
	StatusCreated      = "201"
	StatusUnauthorized = "401"
)

// UnknownUser is recorded when a failed sign-in names no username.
const UnknownUser = "UNKNOWN"

// Auth actions.
const (
	ActionSignIn             = "SIGN_IN"
	ActionSignInFailed       = "SIGN_IN_FAILED"
	ActionSignUp             = "SIGN_UP"
	ActionSignOut            = "SIGN_OUT"
	ActionCredentialsUpdate  = "CREDENTIALS_UPDATE"
	ActionTwoFactorEnable    = "TWO_FACTOR_ENABLE"
	ActionTwoFactorDisable   = "TWO_FACTOR_DISABLE"
	ActionTwoFactorVerifyOK  = "TWO_FACTOR_VERIFY_SUCCESS"
	ActionTwoFactorVerifyBad = "TWO_FACTOR_VERIFY_FAILED"
)

// Event is one row to append. TypeID is nil when there is no subject id.
type Event struct {
	Username   string
	Type       string
	TypeID     *int64
	Action     string
	StatusCode string
}

func id(v int64) *int64 {
	return &v
}

func authEvent(username string, userID *int64, action, status string) Event {
	return Event{Username: username, Type: models.LogTypeAuth, TypeID: userID, Action: action, StatusCode: status}
}

func SignIn(username string, userID int64) Event {
	return authEvent(username, id(userID), ActionSignIn, StatusOK)
}

// SignInFailed records a rejected sign-in. userID is nil when the username
// matched no account.
func SignInFailed(username string, userID *int64) Event {
	if username == "" {
		username = UnknownUser
	}
	return authEvent(username, userID, ActionSignInFailed, StatusUnauthorized)
}

func SignUp(username string, userID int64) Event {
	return authEvent(username, id(userID), ActionSignUp, StatusCreated)
}

func SignOut(username string, userID int64) Event {
	return authEvent(username, id(userID), ActionSignOut, StatusOK)
}

func CredentialsUpdated(username string, userID int64) Event {
	return authEvent(username, id(userID), ActionCredentialsUpdate, StatusOK)
}

func TwoFactorEnabled(username string, userID int64) Event {
	return authEvent(username, id(userID), ActionTwoFactorEnable, StatusOK)
}

func TwoFactorDisabled(username string, userID int64) Event {
	return authEvent(username, id(userID), ActionTwoFactorDisable, StatusOK)
}

func TwoFactorVerified(username string, userID int64, ok bool) Event {
	if ok {
		return authEvent(username, id(userID), ActionTwoFactorVerifyOK, StatusOK)
	}
	return authEvent(username, id(userID), ActionTwoFactorVerifyBad, StatusUnauthorized)
}

// Entity events use the action names CREATE_<TYPE>, UPDATE_<TYPE>,
// DELETE_<TYPE> and GET_<TYPE>.

func EntityCreated(username, typ string, entityID int64) Event {
	return Event{Username: username, Type: typ, TypeID: id(entityID), Action: "CREATE_" + typ, StatusCode: StatusCreated}
}

func EntityUpdated(username, typ string, entityID int64) Event {
	return Event{Username: username, Type: typ, TypeID: id(entityID), Action: "UPDATE_" + typ, StatusCode: StatusOK}
}

func EntityDeleted(username, typ string, entityID int64) Event {
	return Event{Username: username, Type: typ, TypeID: id(entityID), Action: "DELETE_" + typ, StatusCode: StatusOK}
}

func EntityRead(username, typ string, entityID int64) Event {
	return Event{Username: username, Type: typ, TypeID: id(entityID), Action: "GET_" + typ, StatusCode: StatusOK}
}

// AdminAction records an admin panel mutation on the user targetID.
func AdminAction(admin, action string, targetID int64) Event {
	return Event{Username: admin, Type: models.LogTypeAdmin, TypeID: id(targetID), Action: action, StatusCode: StatusOK}
}
