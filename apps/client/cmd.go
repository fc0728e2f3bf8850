package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/academia/core/learning"
	"github.com/trezcool/academia/services/apiclient"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp     = errors.New("help provided")
	errAborted  = errors.New("aborted")
	errNoRecord = errors.New("unknown record kind")
)

type commandLine struct {
	client *apiclient.Client
	in     *bufio.Reader
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -username USERNAME|EMAIL - sign in; the password is prompted next")
	fmt.Fprintln(cli.out, "  logout - sign out and forget the session")
	fmt.Fprintln(cli.out, "  list KIND [-search S] [-q KEYWORD]... [-category C] [-status S] ... - list records")
	fmt.Fprintln(cli.out, "  get KIND ID - show one record")
	fmt.Fprintln(cli.out, "  delete KIND ID [-yes] - delete one record, after confirmation")
	fmt.Fprintln(cli.out, "  feature ID - toggle the featured flag of a course")
	fmt.Fprintln(cli.out, "  archive|restore programs|documents ID")
	fmt.Fprintf(cli.out, "Kinds: %s\n", strings.Join(learning.Kinds, ", "))
}

// run executes one command in its own Scope, printing the outcome notice.
func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	var (
		fn      func(ctx context.Context) error
		success string
		err     error
	)
	switch cmd, rest := args[1], args[2:]; cmd {
	case "login":
		fn, err = cli.login(rest)
		success = "Logged in"
	case "logout":
		fn = cli.client.Logout
		success = "Logged out"
	case "list":
		fn, err = cli.list(rest)
	case "get":
		fn, err = cli.get(rest)
	case "delete":
		fn, err = cli.delete(rest)
		success = "Record deleted"
	case "feature":
		fn, err = cli.feature(rest)
	case "archive", "restore":
		fn, err = cli.archive(cmd, rest)
		success = "Record " + cmd + "d"
	default:
		cli.printUsage()
		return errHelp
	}
	if err != nil {
		return err
	}

	scope := apiclient.NewScope(ctx)
	defer scope.Close()

	err = scope.Run(fn, success)
	if n := scope.Notice(); n.Message != "" {
		fmt.Fprintln(cli.out, n.Message)
	}
	return err
}

func (cli *commandLine) login(args []string) (func(context.Context) error, error) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(cli.out)
	uname := fs.String("username", "", "Your username or email.")
	if err := fs.Parse(args); err != nil || *uname == "" {
		fs.Usage()
		return nil, errHelp
	}

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return nil, errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		fs.Usage()
		return nil, errHelp
	}

	return func(ctx context.Context) error {
		_, err := cli.client.Login(ctx, *uname, string(pwd))
		return err
	}, nil
}

type keywords []string

func (k *keywords) String() string     { return strings.Join(*k, ",") }
func (k *keywords) Set(v string) error { *k = append(*k, v); return nil }

// optionalBool is a tri-state flag: unset, true or false.
type optionalBool struct{ v *bool }

func (b *optionalBool) String() string {
	if b.v == nil {
		return ""
	}
	return strconv.FormatBool(*b.v)
}

func (b *optionalBool) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	b.v = &v
	return nil
}

func (cli *commandLine) list(args []string) (func(context.Context) error, error) {
	if len(args) < 1 {
		cli.printUsage()
		return nil, errHelp
	}
	kind := args[0]

	var (
		q        learning.Query
		kw       keywords
		featured optionalBool
		archived optionalBool
	)
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(cli.out)
	fs.StringVar(&q.Search, "search", "", "Case-insensitive text search.")
	fs.Var(&kw, "q", "Keyword; records matching any keyword are kept. Repeatable.")
	fs.StringVar(&q.Category, "category", "", "Category, or all.")
	fs.StringVar(&q.Department, "department", "", "Department, or all.")
	fs.StringVar(&q.Status, "status", "", "Status, or all.")
	fs.StringVar(&q.Level, "level", "", "Course level, or all.")
	fs.StringVar(&q.FileType, "file-type", "", "Document file type, or all.")
	fs.StringVar(&q.Tag, "tag", "", "Document tag, or all.")
	fs.Var(&featured, "featured", "Only featured (true) or non featured (false) courses.")
	fs.Var(&archived, "archived", "Only archived (true) or active (false) documents.")
	if err := fs.Parse(args[1:]); err != nil {
		return nil, errHelp
	}
	q.Keywords, q.Featured, q.Archived = kw, featured.v, archived.v

	return func(ctx context.Context) error {
		switch kind {
		case learning.KindEmployees:
			return printList[learning.Employee](ctx, cli, kind, q)
		case learning.KindCourses:
			return printList[learning.Course](ctx, cli, kind, q)
		case learning.KindPrograms:
			return printList[learning.Program](ctx, cli, kind, q)
		case learning.KindCertificationTests:
			return printList[learning.CertificationTest](ctx, cli, kind, q)
		case learning.KindEnrollments:
			return printList[learning.Enrollment](ctx, cli, kind, q)
		case learning.KindWebinars:
			return printList[learning.Webinar](ctx, cli, kind, q)
		case learning.KindDocuments:
			return printList[learning.Document](ctx, cli, kind, q)
		case learning.KindDevelopmentPlans:
			return printList[learning.DevelopmentPlan](ctx, cli, kind, q)
		}
		return errors.Wrapf(errNoRecord, "%q", kind)
	}, nil
}

func printList[T learning.Record](ctx context.Context, cli *commandLine, kind string, q learning.Query) error {
	items, err := apiclient.List[T](ctx, cli.client, kind, q)
	if err != nil {
		return err
	}

	var zero T
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(zero.Columns(), "\t"))
	for _, item := range items {
		row := item.Row()
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err = tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d %s\n", len(items), kind)
	return nil
}

func (cli *commandLine) get(args []string) (func(context.Context) error, error) {
	if len(args) != 2 {
		cli.printUsage()
		return nil, errHelp
	}
	kind, id := args[0], args[1]

	return func(ctx context.Context) error {
		var record json.RawMessage
		if err := cli.client.Do(ctx, apiclient.Request{Path: "/" + kind + "/" + id}, &record); err != nil {
			return err
		}
		return cli.printJSON(record)
	}, nil
}

func (cli *commandLine) printJSON(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (cli *commandLine) delete(args []string) (func(context.Context) error, error) {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(cli.out)
	yes := fs.Bool("yes", false, "Do not ask for confirmation.")
	if len(args) < 2 {
		cli.printUsage()
		return nil, errHelp
	}
	kind, id := args[0], args[1]
	if err := fs.Parse(args[2:]); err != nil {
		return nil, errHelp
	}

	if !*yes {
		fmt.Fprintf(cli.out, "Delete %s %s? This cannot be undone. [y/N] ", kind, id)
		answer, _ := cli.in.ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			return nil, errAborted
		}
	}

	return func(ctx context.Context) error {
		return cli.client.Delete(ctx, kind, id)
	}, nil
}

func (cli *commandLine) feature(args []string) (func(context.Context) error, error) {
	if len(args) != 1 {
		cli.printUsage()
		return nil, errHelp
	}

	return func(ctx context.Context) error {
		course, err := cli.client.ToggleFeatured(ctx, args[0])
		if err != nil {
			return err
		}
		if course.Featured {
			fmt.Fprintf(cli.out, "%q is now featured\n", course.Title)
		} else {
			fmt.Fprintf(cli.out, "%q is no longer featured\n", course.Title)
		}
		return nil
	}, nil
}

func (cli *commandLine) archive(action string, args []string) (func(context.Context) error, error) {
	if len(args) != 2 || (args[0] != learning.KindPrograms && args[0] != learning.KindDocuments) {
		cli.printUsage()
		return nil, errHelp
	}
	kind, id := args[0], args[1]

	return func(ctx context.Context) error {
		var record json.RawMessage
		if action == "archive" {
			return cli.client.Archive(ctx, kind, id, &record)
		}
		return cli.client.Restore(ctx, kind, id, &record)
	}, nil
}
