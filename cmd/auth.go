package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in through the proxy. The session cookie it returns is kept in the database.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := models.Credentials{
		Email:    strings.TrimSpace(cmd.String("email")),
		Password: cmd.String("password"),
	}
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("%w: --email and --password (or FLICKX_PASSWORD) are required", shared.ErrMissingArgument)
	}

	acct, err := r.account(ctx)
	if err != nil {
		return err
	}
	defer acct.teardown()

	if err := acct.session.Login(ctx, creds); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	snap := acct.session.Snapshot()
	if !snap.Authenticated {
		return fmt.Errorf("%w: the proxy accepted the login but reports no session", shared.ErrAuthFailed)
	}

	r.logger.Info("signed in", "user", snap.User.DisplayName())
	return r.writePlain("✓ Signed in as %s\n", snap.User.DisplayName())
}

// AuthLogout signs out. The proxy's clearing cookie removes the stored one.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	acct, err := r.account(ctx)
	if err != nil {
		return err
	}
	defer acct.teardown()

	if err := acct.session.Logout(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus prints the resolved session.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	acct, err := r.account(ctx)
	if err != nil {
		return err
	}
	defer acct.teardown()

	snap := acct.session.Snapshot()
	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"authenticated": snap.Authenticated, "user": snap.User}, true)
	}

	if !snap.Authenticated {
		return r.writePlain("✗ Not signed in\n")
	}
	r.writePlain("✓ Signed in as %s\n", snap.User.DisplayName())
	if snap.User.Email != "" {
		r.writePlain("Email: %s\n", snap.User.Email)
	}
	r.writePlain("Liked movies: %d\n", len(acct.likes.IDs()))
	r.writePlain("Wishlist: %d\n", len(acct.wishlist.IDs()))
	return nil
}

// AuthImport copies the cookies from a browser request into the stored jar for the configured app URL.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var session *shared.CurlSession
	var err error
	if curlFile != "" {
		session, err = shared.ParseCurlFile(curlFile)
	} else {
		session, err = shared.ParseCurlCommand(curlCmd)
	}
	if err != nil {
		return fmt.Errorf("failed to parse cURL command: %w", err)
	}

	cookies := session.Cookies()
	if len(cookies) == 0 {
		return fmt.Errorf("%w: the cURL command carries no cookies", shared.ErrInvalidInput)
	}
	if session.CookieNamed("token") == nil {
		r.logger.Warn("no token cookie found; the proxy may not recognise this session")
	}

	appURL, err := url.Parse(r.config.Client.AppURL)
	if err != nil {
		return fmt.Errorf("%w: client.app_url: %v", shared.ErrInvalidConfig, err)
	}
	if origin := session.Origin(); origin != "" && !strings.EqualFold(origin, strings.TrimRight(r.config.Client.AppURL, "/")) {
		r.logger.Warn("cURL target differs from client.app_url; storing cookies for the app URL", "curl", origin)
	}

	jar, err := r.cookieJar()
	if err != nil {
		return err
	}
	jar.SetCookies(appURL, cookies)
	r.logger.Info("imported cookies", "count", len(cookies), "origin", appURL.Host)

	acct, err := r.account(ctx)
	if err != nil {
		return err
	}
	defer acct.teardown()

	if snap := acct.session.Snapshot(); snap.Authenticated {
		return r.writePlain("✓ Imported %d cookies, signed in as %s\n", len(cookies), snap.User.DisplayName())
	}
	return r.writePlain("✓ Imported %d cookies, but the proxy does not recognise the session\n", len(cookies))
}
