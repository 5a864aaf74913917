package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const modulePath = "github.com/dntelisa/SR-S9-Projet-Client"

type packageInfo struct {
	ImportPath string
	Deps       []string
}

// corePackages hold the client state and must stay free of transport,
// rendering and wiring. The session reaches the network only through
// internal/net/transport.
var corePackages = []string{
	"./internal/motion/...",
	"./internal/world/...",
	"./internal/net/proto/...",
	"./internal/net/transport/...",
	"./internal/session/...",
}

var forbiddenPrefixes = []string{
	modulePath + "/internal/net/ws",
	modulePath + "/internal/render",
	modulePath + "/internal/app",
	modulePath + "/internal/bot",
	modulePath + "/internal/session",
	"github.com/gorilla/websocket",
	"github.com/hajimehoshi/ebiten",
	"github.com/dustin/go-humanize",
	"github.com/hako/durafmt",
}

func main() {
	args := append([]string{"list", "-json"}, corePackages...)
	cmd := exec.Command("go", args...)
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Stderr.Write(exitErr.Stderr)
		}
		fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
		os.Exit(1)
	}

	pkgs, err := decodePackages(output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "depscheck: failed to decode package info: %v\n", err)
		os.Exit(1)
	}

	if violations := findViolations(pkgs, forbiddenPrefixes); len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}

func decodePackages(output []byte) ([]packageInfo, error) {
	decoder := json.NewDecoder(bytes.NewReader(output))
	var pkgs []packageInfo
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				return pkgs, nil
			}
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}
}

func findViolations(pkgs []packageInfo, forbidden []string) []string {
	var violations []string
	for _, pkg := range pkgs {
		for _, dep := range pkg.Deps {
			for _, prefix := range forbidden {
				if dep == prefix || strings.HasPrefix(dep, prefix+"/") {
					violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, dep))
					break
				}
			}
		}
	}
	sort.Strings(violations)
	return violations
}
