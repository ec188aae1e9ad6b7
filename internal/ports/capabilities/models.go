package capabilities

type Capability string

const (
	PetsCreate      Capability = "pets:create"
	PetsAdopt       Capability = "pets:adopt"
	Chat            Capability = "chat"
	RequestsCreate  Capability = "requests:create"
	ClearanceDecide Capability = "clearance:decide"

	ModerationPets    Capability = "moderation:pets"
	ModerationUsers   Capability = "moderation:users"
	DoctorsManage     Capability = "doctors:manage"
	FeedbackRead      Capability = "feedback:read"
	RequestsDecideAny Capability = "requests:decide_any"
)

// CapabilityCheck pregunta si un rol puede ejercer una capability.
type CapabilityCheck struct {
	UserID     string
	Role       string
	Capability Capability
}
