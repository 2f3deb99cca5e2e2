package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/SeakMengs/DocSign/pkg/docsign"
)

func (a *cli) flagSet(name, synopsis, description string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.Usage = func() {
		fmt.Fprintf(a.out, "Usage: %s %s %s\n\n", os.Args[0], name, synopsis)
		fmt.Fprintln(a.out, description)
		fmt.Fprintln(a.out, "\nOptions:")
		fs.PrintDefaults()
	}
	return fs
}

// parse returns the positional arguments, failing when fewer than n are given.
func parse(fs *flag.FlagSet, args []string, n int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, errUsage
		}
		return nil, err
	}
	if fs.NArg() < n {
		fs.Usage()
		return nil, errUsage
	}
	return fs.Args(), nil
}

func registerCommand(ctx context.Context, a *cli, args []string) error {
	fs := a.flagSet("register", "-name <name> -email <email> [-password <password>]", "Create an account and store its access token")
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", os.Getenv("DOCSIGN_PASSWORD"), "Password (defaults to $DOCSIGN_PASSWORD)")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	user, err := a.client.Register(ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	if err := a.tokens.Save(a.auth.Token()); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s <%s>\n", user.Name, user.Email)
	return nil
}

func loginCommand(ctx context.Context, a *cli, args []string) error {
	fs := a.flagSet("login", "-email <email> [-password <password>]", "Log in and store the access token")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", os.Getenv("DOCSIGN_PASSWORD"), "Password (defaults to $DOCSIGN_PASSWORD)")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	user, err := a.client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if err := a.tokens.Save(a.auth.Token()); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func logoutCommand(ctx context.Context, a *cli, args []string) error {
	fs := a.flagSet("logout", "", "Forget the stored access token")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	a.auth.Clear()
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func whoamiCommand(ctx context.Context, a *cli, args []string) error {
	fs := a.flagSet("whoami", "", "Show the logged in user")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	user, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s> (%s)\n", user.Name, user.Email, user.ID)
	return nil
}

func listCommand(ctx context.Context, a *cli, args []string) error {
	fs := a.flagSet("list", "[-page n] [-size n]", "List your documents")
	page := fs.Int("page", 1, "Page number")
	size := fs.Int("size", 20, "Documents per page")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	result, err := a.client.ListDocuments(ctx, *page, *size)
	if err != nil {
		return err
	}

	if len(result.Documents) == 0 {
		fmt.Fprintln(a.out, "No documents")
		return nil
	}
	for _, d := range result.Documents {
		printDocumentLine(a, &d)
	}
	fmt.Fprintf(a.out, "Page %d of %d, %d document(s)\n", result.Page, result.TotalPage, result.Total)
	return nil
}

func printDocumentLine(a *cli, d *docsign.Document) {
	fmt.Fprintf(a.out, "%s  %-9s  %s\n", d.ID, d.Status, d.Name)
}

func printDocument(a *cli, d *docsign.Document) {
	fmt.Fprintf(a.out, "ID:       %s\n", d.ID)
	fmt.Fprintf(a.out, "Name:     %s\n", d.Name)
	fmt.Fprintf(a.out, "Status:   %s\n", d.Status)
	fmt.Fprintf(a.out, "Size:     %d bytes\n", d.FileSize)
	if d.LastSignedAt != nil {
		fmt.Fprintf(a.out, "Signed:   %s\n", d.LastSignedAt.Format("2006-01-02 15:04:05"))
	}
}

func uploadCommand(ctx context.Context, a *cli, args []string) error {
	fs := a.flagSet("upload", "<file.pdf>", "Upload a PDF document")
	rest, err := parse(fs, args, 1)
	if err != nil {
		return err
	}

	f, err := os.Open(rest[0])
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	doc, err := a.client.UploadDocument(ctx, filepath.Base(rest[0]), f)
	if err != nil {
		return err
	}
	printDocument(a, doc)
	return nil
}

func showCommand(ctx context.Context, a *cli, args []string) error {
	fs := a.flagSet("show", "<document-id>", "Show document metadata")
	rest, err := parse(fs, args, 1)
	if err != nil {
		return err
	}

	doc, err := a.client.GetDocument(ctx, rest[0])
	if err != nil {
		return err
	}
	printDocument(a, doc)
	return nil
}

func deleteCommand(ctx context.Context, a *cli, args []string) error {
	fs := a.flagSet("delete", "<document-id>", "Delete a document")
	rest, err := parse(fs, args, 1)
	if err != nil {
		return err
	}

	if err := a.client.DeleteDocument(ctx, rest[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", rest[0])
	return nil
}

func statusCommand(ctx context.Context, a *cli, args []string) error {
	fs := a.flagSet("status", "<document-id> <pending|reviewed|signed|archived>", "Set a document's status")
	rest, err := parse(fs, args, 2)
	if err != nil {
		return err
	}

	doc, err := a.client.UpdateStatus(ctx, rest[0], docsign.DocumentStatus(strings.ToLower(rest[1])))
	if err != nil {
		return err
	}
	printDocumentLine(a, doc)
	return nil
}

// openSession loads a document into a signing session whose viewport fits the page to width
// pixels.
func (a *cli) openSession(ctx context.Context, documentID string, page, width int) (*docsign.Session, error) {
	if width <= 0 {
		width = a.cfg.ViewportWidth
	}

	viewport := docsign.NewStaticViewport(docsign.Size{})
	session, err := docsign.NewSession(documentID, a.client, a.auth, a.renderer, viewport, docsign.SessionOptions{
		Input:   docsign.InputOptions{PreviewDir: a.cfg.PreviewDir},
		Surface: docsign.SurfaceOptions{SettleDelay: a.cfg.SettleDelay},
		Logger:  a.logger,
	})
	if err != nil {
		return nil, err
	}

	if err := session.Open(ctx); err != nil {
		session.Close()
		return nil, err
	}

	if page > 0 {
		if err := session.Surface().SetPage(page); err != nil {
			session.Close()
			return nil, docsign.NewValidationError(err.Error())
		}
	}

	pageSize, err := session.Surface().PageSize()
	if err != nil {
		session.Close()
		return nil, err
	}
	viewport.Resize(docsign.FitWidth(pageSize, float64(width)))

	return session, nil
}

func signCommand(ctx context.Context, a *cli, args []string) error {
	fs := a.flagSet("sign", "[options] <document-id>", "Place a signature on a document page")
	mode := fs.String("mode", "draw", "Signature source: draw, upload or text")
	strokes := fs.String("strokes", "", `Strokes for draw mode, e.g. "10,10 80,40;20,60 90,60"`)
	file := fs.String("file", "", "PNG, JPEG or GIF signature image for upload mode")
	text := fs.String("text", "", "Signature text for text mode")
	x := fs.Float64("x", docsign.DefaultPosition.X, "Horizontal offset in rendered pixels")
	y := fs.Float64("y", docsign.DefaultPosition.Y, "Vertical offset in rendered pixels")
	page := fs.Int("page", 1, "Page number")
	width := fs.Int("width", 0, "Rendered page width in pixels (defaults to $DOCSIGN_VIEWPORT_WIDTH)")
	output := fs.String("o", "", "Also save the signed document to this path")
	rest, err := parse(fs, args, 1)
	if err != nil {
		return err
	}

	sourceMode, err := docsign.ParseSourceMode(*mode)
	if err != nil {
		return docsign.NewValidationError(err.Error())
	}

	session, err := a.openSession(ctx, rest[0], *page, *width)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.SelectMode(sourceMode); err != nil {
		return err
	}
	if err := capture(session, sourceMode, *strokes, *file, *text); err != nil {
		return err
	}

	pos := session.MoveSignature(docsign.Position{X: *x, Y: *y})
	rendered := session.Surface().CurrentSize()
	a.logger.Debugf("Signature at (%.1f, %.1f) on a %.0fx%.0f page", pos.X, pos.Y, rendered.Width, rendered.Height)

	if !session.CanSubmit() {
		if err := session.LastError(); err != nil {
			return err
		}
		return docsign.NewValidationError(docsign.ErrMsgEmptySignature)
	}
	if err := session.Apply(ctx); err != nil {
		return err
	}

	if doc := session.Document(); doc != nil {
		fmt.Fprintf(a.out, "Signed %s page %d, status %s\n", doc.ID, session.Surface().Page(), doc.Status)
	}
	if *output != "" {
		return saveDownload(session, *output)
	}
	return nil
}

func capture(session *docsign.Session, mode docsign.SourceMode, strokes, file, text string) error {
	switch mode {
	case docsign.SourceModeDraw:
		parsed, err := parseStrokes(strokes)
		if err != nil {
			return docsign.NewValidationError(err.Error())
		}
		for _, s := range parsed {
			if err := session.DrawStroke(s); err != nil {
				return err
			}
		}
	case docsign.SourceModeUpload:
		if file == "" {
			return docsign.NewValidationError("upload mode needs -file")
		}
		uploaded, err := docsign.OpenUploadedFile(file)
		if err != nil {
			return err
		}
		if err := session.UploadSignature(uploaded); err != nil {
			return err
		}
	case docsign.SourceModeText:
		if err := session.TypeSignature(text); err != nil {
			return err
		}
	}
	return nil
}

// parseStrokes reads strokes separated by ";" where each stroke is a space separated list of
// "x,y" points.
func parseStrokes(s string) ([]docsign.Stroke, error) {
	var strokes []docsign.Stroke
	for _, raw := range strings.Split(s, ";") {
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}

		stroke := make(docsign.Stroke, 0, len(fields))
		for _, f := range fields {
			xs, ys, ok := strings.Cut(f, ",")
			if !ok {
				return nil, fmt.Errorf("invalid point %q, expected x,y", f)
			}
			x, err := strconv.ParseFloat(xs, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid point %q: %w", f, err)
			}
			y, err := strconv.ParseFloat(ys, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid point %q: %w", f, err)
			}
			stroke = append(stroke, docsign.Point{X: x, Y: y})
		}
		strokes = append(strokes, stroke)
	}
	return strokes, nil
}

func reviewCommand(ctx context.Context, a *cli, args []string) error {
	fs := a.flagSet("review", "<document-id>", "Mark a document as reviewed")
	rest, err := parse(fs, args, 1)
	if err != nil {
		return err
	}

	session, err := a.openSession(ctx, rest[0], 0, 0)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.MarkReviewed(ctx); err != nil {
		return err
	}
	if doc := session.Document(); doc != nil {
		printDocumentLine(a, doc)
	}
	return nil
}

func downloadCommand(ctx context.Context, a *cli, args []string) error {
	fs := a.flagSet("download", "[-o path] <document-id>", "Download the current document")
	output := fs.String("o", "", "Output path (defaults to signed_document_<id>.pdf)")
	rest, err := parse(fs, args, 1)
	if err != nil {
		return err
	}

	session, err := a.openSession(ctx, rest[0], 0, 0)
	if err != nil {
		return err
	}
	defer session.Close()

	path := *output
	if path == "" {
		path = session.DownloadFileName()
	}
	if err := saveDownload(session, path); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s\n", path)
	return nil
}

func saveDownload(session *docsign.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := session.Download(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
