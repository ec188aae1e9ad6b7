package feedback

import "context"

type Repository interface {
	CreateFeedback(ctx context.Context, f Feedback) error
	ListFeedback(ctx context.Context) ([]Feedback, error)

	CreateContact(ctx context.Context, c Contact) error
	ListContacts(ctx context.Context) ([]Contact, error)
}
