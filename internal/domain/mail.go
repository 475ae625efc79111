package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const (
	MailTypeCreateUser     = "create_user"
	MailTypePointValidated = "point_validated"
)

type CreateUserMailData struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
	WardName string `json:"wardName,omitempty"`
}

type PointValidatedMailData struct {
	Name         string `json:"name"`
	WardName     string `json:"wardName"`
	PointID      string `json:"pointId"`
	PointText    string `json:"pointText"`
	Score        int    `json:"score"`
	AssessorName string `json:"assessorName"`
}
