// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/handlers/adscampaign"
	"github.com/fluxohq/fluxo/pkg/handlers/apicall"
	"github.com/fluxohq/fluxo/pkg/handlers/condition"
	"github.com/fluxohq/fluxo/pkg/handlers/email"
	"github.com/fluxohq/fluxo/pkg/handlers/loop"
	"github.com/fluxohq/fluxo/pkg/handlers/socialpost"
	"github.com/fluxohq/fluxo/pkg/handlers/uploadmedia"
	"github.com/fluxohq/fluxo/pkg/handlers/webhook"
	"github.com/fluxohq/fluxo/pkg/handlers/whatsapp"
	"github.com/fluxohq/fluxo/pkg/protocol"
	"github.com/fluxohq/fluxo/pkg/registry"
	queuetrigger "github.com/fluxohq/fluxo/pkg/triggers/queue"
	scheduletrigger "github.com/fluxohq/fluxo/pkg/triggers/schedule"
	webhooktrigger "github.com/fluxohq/fluxo/pkg/triggers/webhook"
)

// Collaborators holds the outbound integrations the side-effect handlers
// depend on. A nil field leaves its handler registered but failing fast at
// creation time.
type Collaborators struct {
	Mailer          protocol.Mailer
	AdsProvider     protocol.AdsProvider
	WhatsAppSender  protocol.WhatsAppSender
	SocialPublisher protocol.SocialPublisher
	MediaStore      protocol.MediaStore
}

func registerNativeHandlers(reg *registry.Registry, collab Collaborators) {
	reg.RegisterHandler(condition.NewHandlerFactory())
	reg.RegisterHandler(loop.NewHandlerFactory())
	reg.RegisterHandler(webhook.NewHandlerFactory())
	reg.RegisterHandler(apicall.NewHandlerFactory())
	reg.RegisterHandler(email.NewHandlerFactory(collab.Mailer))
	reg.RegisterHandler(adscampaign.NewHandlerFactory(collab.AdsProvider))
	reg.RegisterHandler(whatsapp.NewHandlerFactory(collab.WhatsAppSender))
	reg.RegisterHandler(socialpost.NewHandlerFactory(collab.SocialPublisher))
	reg.RegisterHandler(uploadmedia.NewHandlerFactory(collab.MediaStore))
}

func registerNativeTriggers(reg *registry.Registry) {
	reg.RegisterTrigger(scheduletrigger.NewTriggerFactory())
	reg.RegisterTrigger(webhooktrigger.NewTriggerFactory())
	reg.RegisterTrigger(queuetrigger.NewTriggerFactory())
}

// NewRegistry builds the registry with every native handler and trigger
// factory registered.
func NewRegistry(log *slog.Logger, collab Collaborators) *registry.Registry {
	reg := registry.NewRegistry(log)

	registerNativeHandlers(reg, collab)
	registerNativeTriggers(reg)

	return reg
}
