// Package buildinfo carries version stamps injected at link time via
// -ldflags "-X fzclean/internal/buildinfo.Version=...".
package buildinfo

var (
    Version = "dev"
    Commit  = ""
    BuiltAt = ""
)

func Info() map[string]string {
    return map[string]string{
        "version": Version,
        "commit":  Commit,
        "builtAt": BuiltAt,
    }
}
