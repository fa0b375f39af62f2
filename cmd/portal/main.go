package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/client"
)

const defaultSessionFile = "portal-session.json"

func usage() {
	fmt.Println(`Available commands:
  help                              show this list
  otp <email>                       request a one-time code
  verify <email> <code>             finish OTP login
  admin <email> <password>          admin password login
  me                                show who is logged in
  projects                          list projects and their reports
  comments <reportID>               show a report's comment thread
  comment <reportID> <text...>      add a comment
  download <reportID> [dir]         download a report file
  upload <projectID> <file>         add a follow-up report
  clients                           (admin) list clients
  add-client <email>                (admin) register a client
  update-client <id> <email>        (admin) change a client email
  toggle-client <id>                (admin) activate/deactivate
  delete-client <id>                (admin) remove a client
  create-project <clientID> <file> <title...>  (admin) new project
  logout                            end the session everywhere
  exit                              quit`)
}

// repl reads commands from stdin and drives the API client until exit.
func repl(c *client.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("portal> ")
		if !scanner.Scan() {
			break
		}
		args := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(args) == 0 {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		run(ctx, c, args)
		cancel()
		if args[0] == "exit" {
			return
		}
	}
}

func run(ctx context.Context, c *client.Client, args []string) {
	switch args[0] {
	case "help":
		usage()
	case "otp":
		if len(args) < 2 {
			fmt.Println("Usage: otp <email>")
			return
		}
		report(c.RequestOTP(ctx, args[1]), "OTP requested, check your inbox")
	case "verify":
		if len(args) < 3 {
			fmt.Println("Usage: verify <email> <code>")
			return
		}
		s, err := c.VerifyOTP(ctx, args[1], args[2])
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		fmt.Printf("Logged in as %s (%s)\n", s.User.Email, s.User.Role)
	case "admin":
		if len(args) < 3 {
			fmt.Println("Usage: admin <email> <password>")
			return
		}
		s, err := c.AdminLogin(ctx, args[1], args[2])
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		fmt.Printf("Logged in as %s (%s)\n", s.User.Email, s.User.Role)
	case "me":
		u, err := c.Me(ctx)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		fmt.Printf("%s (%s)\n", u.Email, u.Role)
	case "projects":
		list, err := c.Projects(ctx)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		if len(list) == 0 {
			fmt.Println("No projects")
			return
		}
		for _, p := range list {
			owner := ""
			if p.ClientEmail != "" {
				owner = " — " + p.ClientEmail
			}
			fmt.Printf("[%d] %s%s\n", p.ID, p.Title, owner)
			for _, r := range p.Reports {
				fmt.Printf("    v%d  %s  (report %d, %s by %s)\n",
					r.Version, r.Name, r.ID, r.UploadedAt.Format("2006-01-02"), r.UploadedBy)
			}
		}
	case "comments":
		id, ok := parseID(args, 1, "comments <reportID>")
		if !ok {
			return
		}
		list, err := c.Comments(ctx, id)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		if len(list) == 0 {
			fmt.Println("No comments")
			return
		}
		for _, cm := range list {
			fmt.Printf("%s  %s: %s\n", cm.CreatedAt.Format("2006-01-02 15:04"), cm.UserEmail, cm.Text)
		}
	case "comment":
		id, ok := parseID(args, 1, "comment <reportID> <text...>")
		if !ok || len(args) < 3 {
			if ok {
				fmt.Println("Usage: comment <reportID> <text...>")
			}
			return
		}
		report(c.PostComment(ctx, id, strings.Join(args[2:], " ")), "Comment added")
	case "download":
		id, ok := parseID(args, 1, "download <reportID> [dir]")
		if !ok {
			return
		}
		dir := "."
		if len(args) > 2 {
			dir = args[2]
		}
		path, err := c.Download(ctx, id, dir)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		fmt.Println("Saved to", path)
	case "upload":
		id, ok := parseID(args, 1, "upload <projectID> <file>")
		if !ok || len(args) < 3 {
			if ok {
				fmt.Println("Usage: upload <projectID> <file>")
			}
			return
		}
		report(c.AddReport(ctx, id, args[2]), "Report uploaded")
	case "clients":
		list, err := c.Clients(ctx)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		if len(list) == 0 {
			fmt.Println("No clients")
			return
		}
		for _, cl := range list {
			fmt.Printf("[%d] %s (%s, added %s)\n", cl.ID, cl.Email, cl.Status, cl.AddedAt.Format("2006-01-02"))
		}
	case "add-client":
		if len(args) < 2 {
			fmt.Println("Usage: add-client <email>")
			return
		}
		report(c.AddClient(ctx, args[1]), "Client added")
	case "update-client":
		id, ok := parseID(args, 1, "update-client <id> <email>")
		if !ok || len(args) < 3 {
			if ok {
				fmt.Println("Usage: update-client <id> <email>")
			}
			return
		}
		report(c.UpdateClient(ctx, id, args[2]), "Client updated")
	case "toggle-client":
		id, ok := parseID(args, 1, "toggle-client <id>")
		if !ok {
			return
		}
		report(c.ToggleClient(ctx, id), "Client toggled")
	case "delete-client":
		id, ok := parseID(args, 1, "delete-client <id>")
		if !ok {
			return
		}
		report(c.DeleteClient(ctx, id), "Client deleted")
	case "create-project":
		id, ok := parseID(args, 1, "create-project <clientID> <file> <title...>")
		if !ok || len(args) < 4 {
			if ok {
				fmt.Println("Usage: create-project <clientID> <file> <title...>")
			}
			return
		}
		report(c.CreateProject(ctx, strings.Join(args[3:], " "), id, args[2]), "Project created")
	case "logout":
		report(c.Logout(ctx), "Logged out")
	case "exit":
		fmt.Println("Bye")
	default:
		fmt.Println("Unknown command. Type 'help' for a list of commands.")
	}
}

func report(err error, ok string) {
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(ok)
}

func parseID(args []string, pos int, usage string) (uint64, bool) {
	if len(args) <= pos {
		fmt.Println("Usage:", usage)
		return 0, false
	}
	id, err := strconv.ParseUint(args[pos], 10, 64)
	if err != nil {
		fmt.Println("Invalid id:", args[pos])
		return 0, false
	}
	return id, true
}

func main() {
	var (
		baseURL     string
		sessionFile string
	)
	flag.StringVar(&baseURL, "a", "http://localhost:8080", "portal server address")
	flag.StringVar(&sessionFile, "s", defaultSessionFile, "session file path")
	flag.Parse()

	session, err := client.NewFileSession(sessionFile)
	if err != nil {
		log.Fatalf("session file: %v", err)
	}
	c := client.New(baseURL, session)

	if email, ok := c.CurrentUser(); ok && email != "" {
		fmt.Println("Resuming session for", email)
	}
	usage()
	repl(c)
}
