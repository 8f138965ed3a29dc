package models

// FormState is the per-user progress through a multi-step form.
type FormState struct {
	UserID      int64             `json:"user_id"`
	Form        string            `json:"form"`
	CurrentStep string            `json:"current_step"`
	FieldIndex  int               `json:"field_index"`
	TempData    map[string]string `json:"temp_data"`
}

func NewFormState(userID int64, form, step string) *FormState {
	return &FormState{
		UserID:      userID,
		Form:        form,
		CurrentStep: step,
		TempData:    make(map[string]string),
	}
}

func (s *FormState) Set(key, value string) {
	if s.TempData == nil {
		s.TempData = make(map[string]string)
	}
	s.TempData[key] = value
}

func (s *FormState) GetString(key string) string {
	if s.TempData == nil {
		return ""
	}
	return s.TempData[key]
}
