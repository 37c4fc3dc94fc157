package common

// Version is the service version, overridden at build time with
// -ldflags "-X github.com/landreg/title-registry-backend/common.Version=...".
var Version = "dev"

// PackageName tags metrics and logs emitted by this service.
const PackageName = "title_registry"
