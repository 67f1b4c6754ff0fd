package cli

const usage = `Usage:
  unwrap transform <file> [--root PATH] [--global-policy rewrite|ignore] [--map]
  unwrap transform <files-or-dirs>... --out-dir PATH [--map] [--jobs N] [--format table|json]
  unwrap exports <files-or-dirs>... [--format table|json]

Options:
  --root PATH                    Project root path (default: .)
  --config PATH                  Config file (default: search root for .unwrap.yml, .unwrap.yaml, unwrap.json, unwrap.toml)
  --out-dir PATH                 Write rewritten modules here; required for multiple inputs
  --map                          Emit source maps (sibling .map files, or inline for single-file output)
  --global-policy rewrite|ignore Unify global/self/window references or leave them (default: rewrite)
  --jobs N                       Parallel workers (default: number of CPUs)
  --format table|json            Report format (default: table)
  -h, --help                     Show this help text
`

func Usage() string {
	return usage
}
