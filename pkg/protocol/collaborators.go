package protocol

import "context"

// Collaborator ports for the external systems node handlers call out to.
// The engine only needs success/failure plus structured output from these
// calls; concrete transports live outside the engine.

// EmailMessage is the narrow request contract for the email handler.
type EmailMessage struct {
	To          []string
	CC          []string
	BCC         []string
	Subject     string
	Body        string
	Template    string
	Attachments []string
}

type Mailer interface {
	Send(ctx context.Context, message EmailMessage) (messageID string, err error)
}

// CampaignRequest describes an ad campaign to create or update.
type CampaignRequest struct {
	Platform     string
	CampaignName string
	Budget       float64
	Objective    string
	Targeting    map[string]any
	CreativeID   string
}

type AdsProvider interface {
	CreateCampaign(ctx context.Context, request CampaignRequest) (campaignID string, err error)
	// DeactivateCampaign must be idempotent: deactivating an already
	// deactivated or missing campaign is not an error.
	DeactivateCampaign(ctx context.Context, platform, campaignID string) error
}

// WhatsAppMessage is the narrow request contract for the whatsapp handler.
type WhatsAppMessage struct {
	PhoneNumber    string
	Message        string
	MediaURL       string
	TemplateID     string
	TemplateParams map[string]string
}

type WhatsAppSender interface {
	SendMessage(ctx context.Context, message WhatsAppMessage) (messageID string, err error)
}

// SocialPost describes a post to schedule or publish.
type SocialPost struct {
	Platforms   []string
	Content     string
	MediaURLs   []string
	ScheduledAt string
	Hashtags    []string
}

type SocialPublisher interface {
	Publish(ctx context.Context, post SocialPost) (postID string, err error)
	// Unschedule must be idempotent.
	Unschedule(ctx context.Context, postID string) error
}

// MediaUpload describes a media asset to store.
type MediaUpload struct {
	Source          string
	Folder          string
	Optimize        bool
	Transformations []string
}

type MediaStore interface {
	Upload(ctx context.Context, upload MediaUpload) (assetID string, url string, err error)
	// Delete must be idempotent.
	Delete(ctx context.Context, assetID string) error
}
