package pets

import (
	"strings"
	"time"
)

// Type define las especies publicables.
// @Enum Dog, Cat, Bird, Other
type Type string

const (
	TypeDog   Type = "Dog"
	TypeCat   Type = "Cat"
	TypeBird  Type = "Bird"
	TypeOther Type = "Other"
)

// ParseType acepta cualquier capitalización.
func ParseType(s string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dog":
		return TypeDog, true
	case "cat":
		return TypeCat, true
	case "bird":
		return TypeBird, true
	case "other":
		return TypeOther, true
	default:
		return "", false
	}
}

// Gender define el sexo de la mascota.
// @Enum Male, Female, Unknown
type Gender string

const (
	GenderMale    Gender = "Male"
	GenderFemale  Gender = "Female"
	GenderUnknown Gender = "Unknown"
)

// ParseGender: vacío => Unknown.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return GenderUnknown, true
	case "male":
		return GenderMale, true
	case "female":
		return GenderFemale, true
	case "unknown":
		return GenderUnknown, true
	default:
		return "", false
	}
}

const (
	DefaultBreed       = "Unknown"
	DefaultDescription = "No description available."
	HomeListingSize    = 6
)

// Pet es un aviso de adopción/venta. Lo crea un vendedor (owner = seller = creador)
// y queda oculto hasta que un admin lo aprueba.
type Pet struct {
	ID           string
	OwnerUserID  string
	SellerUserID string
	BuyerUserID  *string

	Name        string
	Type        Type
	Breed       string
	Age         int
	Gender      Gender
	Description string
	ImageURL    *string

	IsApproved bool
	IsAdopted  bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// VisibleTo: un aviso aprobado es público; uno pendiente solo lo ven owner, seller o moderadores.
func (p Pet) VisibleTo(viewerID string, moderator bool) bool {
	if p.IsApproved || moderator {
		return true
	}
	return viewerID != "" && (viewerID == p.OwnerUserID || viewerID == p.SellerUserID)
}

// RejectResult deja explícito que el rechazo borra el aviso.
type RejectResult struct {
	Deleted bool
	PetID   string
	Name    string
}
