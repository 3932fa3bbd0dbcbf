package types

// AuthUser is the signed-in user object the web client sends along.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// GenerateRequest is the body of a meal plan generation request.
type GenerateRequest struct {
	AccountIdentifier string      `json:"account_identifier"`
	Email             string      `json:"email"`
	DietPreference    string      `json:"diet_preference" binding:"max=200"`
	PeopleCount       PeopleCount `json:"people_count"`
	Cuisine           string      `json:"cuisine" binding:"max=200"`
	AdditionalNote    string      `json:"additional_note" binding:"max=1000"`
	User              *AuthUser   `json:"user"`
}

// Account returns the account identifier, preferring the explicit field over
// the legacy email field and then the user object.
func (r *GenerateRequest) Account() string {
	switch {
	case r.AccountIdentifier != "":
		return r.AccountIdentifier
	case r.Email != "":
		return r.Email
	case r.User != nil:
		return r.User.Email
	default:
		return ""
	}
}

// Preferences returns the generation parameters with defaults applied.
func (r *GenerateRequest) Preferences() PlanPreferences {
	people := int(r.PeopleCount)
	if people < 1 {
		people = 1
	}
	return PlanPreferences{
		DietPreference: r.DietPreference,
		PeopleCount:    people,
		Cuisine:        r.Cuisine,
		AdditionalNote: r.AdditionalNote,
	}
}

// PlanLookupRequest asks for an account's current tier.
type PlanLookupRequest struct {
	Email string `json:"email" binding:"required"`
}
