package main

import (
	"fmt"

	"github.com/al-bashkir/conn-tui/internal/config"
)

func runCompletion(args []string) {
	if len(args) == 0 {
		fatal(fmt.Errorf("completion requires a shell: bash or zsh\nUsage: conn-tui completion bash|zsh"))
	}
	switch args[0] {
	case "bash":
		fmt.Print(bashCompletionScript)
	case "zsh":
		fmt.Print(zshCompletionScript)
	default:
		fatal(fmt.Errorf("unknown shell %q: use bash or zsh", args[0]))
	}
}

// runInternalComplete prints completion candidates, one per line. It is
// silent on errors.
func (a *app) runInternalComplete(args []string) {
	if len(args) == 0 {
		return
	}
	if args[0] == "servers" {
		inv := config.Inventory{Servers: a.reg.Store().All()}
		for _, n := range config.ServerNames(inv) {
			fmt.Println(n)
		}
	}
}

const bashCompletionScript = `# bash completion for conn-tui
# Usage:
#   source <(conn-tui completion bash)
# Or add to ~/.bashrc:
#   eval "$(conn-tui completion bash)"

_conn_tui() {
  COMPREPLY=()
  local cur="${COMP_WORDS[COMP_CWORD]}"
  local cmd="${COMP_WORDS[1]}"

  case $COMP_CWORD in
    1)
      COMPREPLY=($(compgen -W "list ls add headers h share open remove rm completion" -- "$cur"))
      ;;
    2)
      case $cmd in
        headers|h)
          COMPREPLY=($(compgen -W "get set clear" -- "$cur"))
          ;;
        share|open|remove|rm)
          local IFS=$'\n'
          COMPREPLY=($(compgen -W "$(conn-tui __complete servers 2>/dev/null)" -- "$cur"))
          ;;
        completion)
          COMPREPLY=($(compgen -W "bash zsh" -- "$cur"))
          ;;
      esac
      ;;
    3)
      case $cmd in
        headers|h)
          local IFS=$'\n'
          COMPREPLY=($(compgen -W "$(conn-tui __complete servers 2>/dev/null)" -- "$cur"))
          ;;
      esac
      ;;
  esac
}

complete -F _conn_tui conn-tui
`

const zshCompletionScript = `#compdef conn-tui
# zsh completion for conn-tui
# Usage (one-time setup):
#   mkdir -p ~/.zfunc
#   conn-tui completion zsh > ~/.zfunc/_conn_tui
# Then add to ~/.zshrc (before compinit):
#   fpath=(~/.zfunc $fpath)
#   autoload -Uz compinit && compinit

_conn_tui() {
  local cmd="${words[2]}"

  case $CURRENT in
    2)
      local -a cmds
      cmds=(
        'list:list configured servers'
        'ls:alias for list'
        'add:add a server'
        'headers:get, set or clear header overrides'
        'h:alias for headers'
        'share:print and copy an invite link'
        'open:open the active URL in a browser'
        'remove:revoke tokens and delete a server'
        'rm:alias for remove'
        'completion:output shell completion script'
      )
      _describe 'command' cmds
      ;;
    3)
      case $cmd in
        headers|h)
          local -a sub
          sub=(
            'get:print header overrides'
            'set:replace header overrides from stdin'
            'clear:remove all header overrides'
          )
          _describe 'action' sub
          ;;
        share|open|remove|rm)
          local -a servers
          servers=(${(f)"$(conn-tui __complete servers 2>/dev/null)"})
          compadd -a servers
          ;;
        completion)
          local -a shells
          shells=('bash:bash completion script' 'zsh:zsh completion script')
          _describe 'shell' shells
          ;;
      esac
      ;;
    4)
      case $cmd in
        headers|h)
          local -a servers
          servers=(${(f)"$(conn-tui __complete servers 2>/dev/null)"})
          compadd -a servers
          ;;
      esac
      ;;
  esac
}

_conn_tui "$@"
`
