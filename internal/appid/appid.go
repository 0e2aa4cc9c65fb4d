package appid

import (
	"context"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/kwradar/kwradar/internal/assets/appidentity"
)

func init() {
	// Best-effort registration. Explicit identity overrides remain
	// authoritative (Options.ExplicitPath and FULMEN_APP_IDENTITY_PATH);
	// the embedded identity covers standalone binaries with no external
	// `.fulmen/app.yaml`.
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}
