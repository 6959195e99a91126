package remotehost

import "strings"

// sudoPreamble resolves $SUDO on the remote side so scripts work both as
// root and as an unprivileged user with sudo installed.
const sudoPreamble = `SUDO=""
if [ "$(id -u)" -ne 0 ]; then
  if ! command -v sudo >/dev/null 2>&1; then
    echo "sudo is required for non-root remote user" >&2
    exit 1
  fi
  SUDO="sudo"
fi
`

// script assembles a strict-mode script from the sudo preamble and the
// given body lines.
func script(lines ...string) string {
	var b strings.Builder
	b.WriteString("set -eu\n")
	b.WriteString(sudoPreamble)
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String()
}

// ProvisionScript installs the container daemon and the reverse proxy when
// missing and makes sure both services are running. Re-running on a
// provisioned host is a no-op.
func ProvisionScript() string {
	return script(
		`if [ "$(uname -s)" != "Linux" ]; then`,
		`  echo "remote host must be Linux" >&2`,
		`  exit 1`,
		`fi`,
		`if ! command -v docker >/dev/null 2>&1; then`,
		`  export DEBIAN_FRONTEND=noninteractive`,
		`  $SUDO apt-get update -qq`,
		`  $SUDO apt-get install -y -qq docker.io`,
		`fi`,
		`if ! command -v nginx >/dev/null 2>&1; then`,
		`  export DEBIAN_FRONTEND=noninteractive`,
		`  $SUDO apt-get update -qq`,
		`  $SUDO apt-get install -y -qq nginx`,
		`fi`,
		`$SUDO systemctl enable --now docker`,
		`$SUDO systemctl enable --now nginx`,
		`if ! $SUDO docker info >/dev/null 2>&1; then`,
		`  echo "docker daemon is not running or accessible" >&2`,
		`  exit 1`,
		`fi`,
	)
}
