package account

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// AccountQuery carries the redirect target on GET requests
type AccountQuery struct {
	RedirectURI string `query:"redirectUri" form:"redirectUri" json:"redirectUri"`
}

// LoginRequest payload
type LoginRequest struct {
	Email       string `form:"email" json:"email"`
	Password    string `form:"password" json:"password"`
	RememberMe  bool   `form:"rememberMe" json:"rememberMe"`
	RedirectURI string `form:"redirectUri" json:"redirectUri"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// RegisterRequest is the registration form payload
type RegisterRequest struct {
	Username    string `form:"username" json:"username"`
	NickName    string `form:"nickname" json:"nickname"`
	Email       string `form:"email" json:"email"`
	Password    string `form:"password" json:"password"`
	RedirectURI string `form:"redirectUri" json:"redirectUri"`
}

// Validate will validate the payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r, identityRules(&r.Username, &r.NickName, &r.Email, &r.Password)...)
}

// InitializeRequest is the first-run form payload
type InitializeRequest struct {
	Username    string `form:"username" json:"username"`
	NickName    string `form:"nickname" json:"nickname"`
	Email       string `form:"email" json:"email"`
	Password    string `form:"password" json:"password"`
	Title       string `form:"title" json:"title"`
	Description string `form:"description" json:"description"`
	RedirectURI string `form:"redirectUri" json:"redirectUri"`
}

// Validate will validate the payload
func (r InitializeRequest) Validate() error {
	rules := identityRules(&r.Username, &r.NickName, &r.Email, &r.Password)
	rules = append(rules,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 160)),
		validation.Field(&r.Description, validation.Length(0, 450)),
	)
	return validation.ValidateStruct(&r, rules...)
}

// ProfileEditRequest holds the four mutable profile fields
type ProfileEditRequest struct {
	Email       string `form:"email" json:"email"`
	NickName    string `form:"nickname" json:"nickname"`
	Avatar      string `form:"avatar" json:"avatar"`
	Bio         string `form:"bio" json:"bio"`
	RedirectURI string `form:"redirectUri" json:"redirectUri"`
}

// Validate will validate the payload
func (r ProfileEditRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.NickName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Avatar, validation.Length(0, 2048)),
		validation.Field(&r.Bio, validation.Length(0, 2000)),
	)
}

func identityRules(username, nickname, email, password *string) []*validation.FieldRules {
	return []*validation.FieldRules{
		validation.Field(username,
			validation.Required,
			validation.Length(2, 50),
			validation.Match(usernamePattern),
		),
		validation.Field(nickname, validation.Required, validation.Length(1, 100)),
		validation.Field(email, validation.Required, is.Email),
		validation.Field(password, validation.Required, validation.Length(6, 100)),
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors keyed by the
// field name. Other errors end up under "form".
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr == nil {
				continue
			}
			out[strings.ToLower(field)] = ferr.Error()
		}
		return out
	}

	out["form"] = err.Error()
	return out
}
