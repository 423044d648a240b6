package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/mediaforge/pkg/agent"
	"github.com/haivivi/mediaforge/pkg/cli"
	"github.com/haivivi/mediaforge/pkg/store"
)

const chatHelp = `Talk to the script-room agents.

With a message, one turn is sent and the reply printed. Without one, an
interactive session starts. Slash commands (/idea, /go, /eat ...) are sent to
the agent; session commands start with a colon:

  :agent <id>   switch agent
  :agents       list agents
  :history      show the conversation with the current agent
  :add <n>      add suggestion n of the last reply to the process list
  :confirm      accept the pending export, archive the process list and
                clear every conversation
  :reset        clear every conversation
  :quit         leave

Histories are stored in the remote store and shared with the console.

Examples:
  mediaforge chat angle
  mediaforge chat angle "/idea деньги"`

var chatCmd = &cobra.Command{
	Use:   "chat [agent] [message...]",
	Short: "Talk to the script-room agents",
	Long:  chatHelp,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSettings()
		if err != nil {
			return err
		}
		p, err := s.Provider()
		if err != nil {
			return err
		}
		roster, err := s.Roster()
		if err != nil {
			return err
		}
		room := agent.NewRoom(p, s.StoreClient(), roster)

		ctx, cancel := signalContext()
		defer cancel()
		if err := room.Load(ctx); err != nil {
			cli.PrintWarning("Could not load chat histories: %v", err)
		}

		agentID := roster.IDs()[0]
		if len(args) > 0 {
			agentID = args[0]
			if _, ok := roster.Get(agentID); !ok {
				return &agent.UnknownAgentError{ID: agentID}
			}
		}
		if len(args) > 1 {
			reply, err := sendTurn(ctx, room, agentID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if reply.Err != nil {
				return reply.Err
			}
			return nil
		}
		return runChat(ctx, room, agentID)
	},
}

// chatSession is the state of an interactive chat.
type chatSession struct {
	room    *agent.Room
	agentID string
	last    *agent.Reply
}

func runChat(ctx context.Context, room *agent.Room, agentID string) error {
	sess := &chatSession{room: room, agentID: agentID}
	fmt.Println(styles.Title.Render("mediaforge script room"))
	fmt.Println(styles.Help.Render("Type a message or a slash command. :help for session commands, :quit to leave."))
	sess.printAgent()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Print(styles.Label("you", true) + " ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			quit, err := sess.command(ctx, strings.Fields(line[1:]))
			if err != nil {
				fmt.Println(styles.Error.Render(err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		reply, err := sendTurn(ctx, room, sess.agentID, line)
		if err != nil {
			fmt.Println(styles.Error.Render(err.Error()))
			continue
		}
		sess.last = reply
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

// sendTurn streams one turn to stdout and prints its suggestions.
func sendTurn(ctx context.Context, room *agent.Room, agentID, text string) (*agent.Reply, error) {
	a, _ := room.Roster().Get(agentID)
	fmt.Print(styles.Label(a.Name, false) + " ")
	streamed := false
	reply, err := room.Send(ctx, agentID, text, func(frag string) {
		streamed = true
		fmt.Print(frag)
	})
	if streamed {
		fmt.Println()
	}
	if err != nil {
		return nil, err
	}
	if reply.Err != nil {
		fmt.Println(styles.Error.Render(reply.Text))
		return reply, nil
	}
	for i, sg := range reply.Suggestions {
		fmt.Println(styles.Help.Render(fmt.Sprintf("  [%d] %s: %s  (:add %d)", i+1, sg.Type, sg.Title, i+1)))
	}
	if reply.Proposal != nil {
		fmt.Println(styles.Help.Render(fmt.Sprintf("  export %q ready, :confirm to finish the pipeline", reply.Proposal.Title)))
	}
	return reply, nil
}

func (s *chatSession) printAgent() {
	a, _ := s.room.Roster().Get(s.agentID)
	names := make([]string, len(a.Commands))
	for i, c := range a.Commands {
		names[i] = c.Name
	}
	fmt.Println(styles.Model.Render(a.Name) + " " + styles.Help.Render(strings.Join(names, " ")))
}

func (s *chatSession) command(ctx context.Context, parts []string) (quit bool, err error) {
	if len(parts) == 0 {
		return false, nil
	}
	switch parts[0] {
	case "quit", "exit", "q":
		return true, nil
	case "help", "h", "?":
		fmt.Println(chatHelp)
	case "agents":
		for _, a := range s.room.Roster().List() {
			fmt.Printf("  %-10s %s\n", a.ID, a.Name)
		}
	case "agent":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: :agent <id>")
		}
		if _, ok := s.room.Roster().Get(parts[1]); !ok {
			return false, &agent.UnknownAgentError{ID: parts[1]}
		}
		s.agentID = parts[1]
		s.last = nil
		s.printAgent()
	case "history":
		a, _ := s.room.Roster().Get(s.agentID)
		for _, m := range s.room.History(s.agentID) {
			if m.Role == store.RoleUser {
				fmt.Println(styles.Label("you", true), m.Text)
			} else {
				fmt.Println(styles.Label(a.Name, false))
				fmt.Println(cli.Indent(m.Text, "  "))
			}
		}
	case "add":
		if s.last == nil || len(s.last.Suggestions) == 0 {
			return false, fmt.Errorf("the last reply has no suggestions")
		}
		n := 1
		if len(parts) > 1 {
			if n, err = strconv.Atoi(parts[1]); err != nil || n < 1 || n > len(s.last.Suggestions) {
				return false, fmt.Errorf("suggestion number must be 1..%d", len(s.last.Suggestions))
			}
		}
		item, added, err := s.room.AddToProcess(ctx, s.agentID, s.last.Suggestions[n-1])
		if err != nil {
			return false, err
		}
		if !added {
			cli.PrintWarning("An item with that title and type already exists")
			return false, nil
		}
		cli.PrintSuccess("Added %s %q", item.Type, item.Title)
	case "confirm":
		if s.last == nil || s.last.Proposal == nil {
			return false, fmt.Errorf("no export is pending")
		}
		item, err := s.room.ConfirmExport(ctx, *s.last.Proposal)
		if err != nil {
			return false, err
		}
		s.last = nil
		if item != nil {
			cli.PrintSuccess("Exported %q; process list archived and conversations cleared", item.Title)
		} else {
			cli.PrintSuccess("Process list archived and conversations cleared")
		}
	case "reset":
		if err := s.room.Reset(ctx); err != nil {
			return false, err
		}
		s.last = nil
		cli.PrintSuccess("Conversations cleared")
	default:
		return false, fmt.Errorf("unknown session command :%s, try :help", parts[0])
	}
	return false, nil
}
