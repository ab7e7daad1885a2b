package main

import (
	"context"
	"strings"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/urfave/cli/v3"
)

// Contact validates the message locally with the same rules as the proxy, then submits it.
func (r *Runner) Contact(ctx context.Context, cmd *cli.Command) error {
	msg := models.ContactMessage{
		Name:    strings.TrimSpace(cmd.String("name")),
		Email:   strings.TrimSpace(cmd.String("email")),
		Message: strings.TrimSpace(cmd.String("message")),
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	client, err := r.apiClient()
	if err != nil {
		return err
	}
	if err := client.Contact(ctx, msg); err != nil {
		return err
	}
	return r.writePlain("✓ Message sent\n")
}
