package profile

import (
	"context"
	"errors"
	"time"
)

// Mode is the edit screen's state.
type Mode string

const (
	ModeViewing Mode = "viewing"
	ModeEditing Mode = "editing"
)

// Confirmation and failure texts shown by the edit screen.
const (
	MsgSaved      = "Dados atualizados com sucesso!"
	MsgSaveFailed = "Não foi possível salvar as alterações. "
)

// Editor errors
var (
	ErrNotEditing   = errors.New("profile is not in edit mode")
	ErrUnknownField = errors.New("unknown profile field")
)

// Form is the string-valued draft of a profile as the edit screen holds it.
type Form struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	AvatarURL      string `json:"avatar_url"`
	BirthDate      string `json:"birth_date"`
	Gender         string `json:"gender"`
	PhoneMobile    string `json:"phone_mobile"`
	PhoneLandline  string `json:"phone_landline"`
	Street         string `json:"street"`
	Number         string `json:"number"`
	Neighborhood   string `json:"neighborhood"`
	City           string `json:"city"`
	ConversionDate string `json:"conversion_date"`
	BaptismDate    string `json:"baptism_date"`
	Ministry       string `json:"ministry"`
	MemberStatus   string `json:"member_status"`
	EntryDate      string `json:"entry_date"`
	GroupName      string `json:"group_name"`
}

// FormFields lists every editable field name in screen order.
var FormFields = []string{
	"name", "email", "avatar_url", "birth_date", "gender",
	"phone_mobile", "phone_landline", "street", "number", "neighborhood", "city",
	"conversion_date", "baptism_date", "ministry", "member_status", "entry_date", "group_name",
}

// FormFrom mirrors the server values into a draft.
func FormFrom(p Profile) Form {
	return Form{
		Name:           p.Name,
		Email:          p.Email,
		AvatarURL:      p.AvatarURL,
		BirthDate:      FormatDate(p.BirthDate),
		Gender:         p.Gender,
		PhoneMobile:    p.PhoneMobile,
		PhoneLandline:  p.PhoneLandline,
		Street:         p.Street,
		Number:         p.Number,
		Neighborhood:   p.Neighborhood,
		City:           p.City,
		ConversionDate: FormatDate(p.ConversionDate),
		BaptismDate:    FormatDate(p.BaptismDate),
		Ministry:       p.Ministry,
		MemberStatus:   p.MemberStatus,
		EntryDate:      FormatDate(p.EntryDate),
		GroupName:      p.GroupName,
	}
}

func (f *Form) field(name string) *string {
	switch name {
	case "name":
		return &f.Name
	case "email":
		return &f.Email
	case "avatar_url":
		return &f.AvatarURL
	case "birth_date":
		return &f.BirthDate
	case "gender":
		return &f.Gender
	case "phone_mobile":
		return &f.PhoneMobile
	case "phone_landline":
		return &f.PhoneLandline
	case "street":
		return &f.Street
	case "number":
		return &f.Number
	case "neighborhood":
		return &f.Neighborhood
	case "city":
		return &f.City
	case "conversion_date":
		return &f.ConversionDate
	case "baptism_date":
		return &f.BaptismDate
	case "ministry":
		return &f.Ministry
	case "member_status":
		return &f.MemberStatus
	case "entry_date":
		return &f.EntryDate
	case "group_name":
		return &f.GroupName
	}
	return nil
}

// Get returns a field's draft value.
func (f Form) Get(name string) (string, bool) {
	p := f.field(name)
	if p == nil {
		return "", false
	}
	return *p, true
}

// ToProfile builds the full record to submit. ID and role come from the
// server copy; every date field is converted, empty ones to nil.
func (f Form) ToProfile(server Profile) (Profile, error) {
	p := Profile{
		ID:            server.ID,
		Role:          server.Role,
		Name:          f.Name,
		Email:         f.Email,
		AvatarURL:     f.AvatarURL,
		Gender:        f.Gender,
		PhoneMobile:   f.PhoneMobile,
		PhoneLandline: f.PhoneLandline,
		Street:        f.Street,
		Number:        f.Number,
		Neighborhood:  f.Neighborhood,
		City:          f.City,
		Ministry:      f.Ministry,
		MemberStatus:  f.MemberStatus,
		GroupName:     f.GroupName,
	}
	dates := []struct {
		src string
		dst **time.Time
	}{
		{f.BirthDate, &p.BirthDate},
		{f.ConversionDate, &p.ConversionDate},
		{f.BaptismDate, &p.BaptismDate},
		{f.EntryDate, &p.EntryDate},
	}
	for _, d := range dates {
		t, err := ParseDate(d.src)
		if err != nil {
			return Profile{}, err
		}
		*d.dst = t
	}
	return p, nil
}

// Saver submits a full profile record keyed by its ID.
type Saver interface {
	SaveProfile(ctx context.Context, p Profile) error
}

// Editor is the profile screen's state machine: viewing -> editing -> viewing.
// Not safe for concurrent use; one editor belongs to one screen.
type Editor struct {
	mode   Mode
	server Profile
	draft  Form

	Message string
	Error   string
}

// NewEditor starts in viewing mode with the draft equal to the server values.
func NewEditor(server Profile) *Editor {
	return &Editor{mode: ModeViewing, server: server, draft: FormFrom(server)}
}

// Mode returns the current state.
func (e *Editor) Mode() Mode { return e.mode }

// Draft returns a copy of the local draft.
func (e *Editor) Draft() Form { return e.draft }

// Server returns the last-known server values.
func (e *Editor) Server() Profile { return e.server }

// Edit enters editing mode. The draft already equals the server values.
func (e *Editor) Edit() {
	e.mode = ModeEditing
	e.Message = ""
	e.Error = ""
}

// Set changes one draft field.
// PRE: editor is in editing mode
func (e *Editor) Set(field, value string) error {
	if e.mode != ModeEditing {
		return ErrNotEditing
	}
	p := e.draft.field(field)
	if p == nil {
		return ErrUnknownField
	}
	*p = value
	return nil
}

// Cancel discards the draft and returns to viewing.
func (e *Editor) Cancel() {
	e.draft = FormFrom(e.server)
	e.mode = ModeViewing
	e.Error = ""
}

// Save converts the draft and submits it as one full-record update.
// On success the editor returns to viewing with a confirmation; on failure it
// stays in editing and keeps the draft.
func (e *Editor) Save(ctx context.Context, saver Saver) error {
	if e.mode != ModeEditing {
		return ErrNotEditing
	}
	p, err := e.draft.ToProfile(e.server)
	if err != nil {
		e.Error = MsgSaveFailed + err.Error()
		return err
	}
	if err := saver.SaveProfile(ctx, p); err != nil {
		e.Error = MsgSaveFailed + err.Error()
		return err
	}
	e.server = p
	e.draft = FormFrom(p)
	e.mode = ModeViewing
	e.Error = ""
	e.Message = MsgSaved
	return nil
}

// Refresh takes new server values pushed by the sync hook. The draft follows
// the server only while viewing so unsaved edits are never overwritten.
func (e *Editor) Refresh(server Profile) {
	e.server = server
	if e.mode == ModeViewing {
		e.draft = FormFrom(server)
	}
}
