package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alphapie77/booklending-go/internal/api"
	"github.com/alphapie77/booklending-go/internal/catalog"
	"github.com/alphapie77/booklending-go/internal/googlebooks"
	"github.com/alphapie77/booklending-go/internal/session"
)

func (a *App) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.cmdLogin(ctx, args)
	case "register":
		return a.cmdRegister(ctx, args)
	case "logout":
		a.session.Logout(ctx)
		fmt.Fprintln(a.out, "signed out")
		return nil
	case "whoami":
		return a.cmdWhoami()
	case "profile":
		return a.cmdProfile(ctx, args)
	case "books":
		return a.cmdBooks(ctx, args)
	case "book":
		return a.cmdBook(ctx, args)
	case "requests":
		return a.cmdRequests(ctx, args)
	case "request":
		return a.cmdRequest(ctx, args)
	case "accept":
		return a.cmdDecide(ctx, args, true)
	case "decline":
		return a.cmdDecide(ctx, args, false)
	case "loans":
		return a.cmdLoans(ctx, args)
	case "return":
		return a.cmdReturn(ctx, args)
	case "wishlist":
		return a.cmdWishlist(ctx, args)
	case "stats":
		return a.cmdStats(ctx)
	case "google":
		return a.cmdGoogle(ctx, args)
	case "help":
		a.printUsage()
		return nil
	default:
		a.printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *App) printUsage() {
	fmt.Fprint(a.out, `usage: booklend <command> [args]

  login <username> <password>
  register <username> <email> <password> <password-confirm> [first] [last]
  logout
  whoami
  profile [show|refresh|update key=value ...]
  books [mine|available|featured|search <query>]
  book <show|add|remove> ...
  requests [mine|incoming]
  request <book-id> [message]
  accept <request-id>
  decline <request-id>
  loans [lent]
  return <loan-id>
  wishlist [list|add <title> <author>|remove <id>|matches <id>]
  stats
  google <search <query>|isbn <isbn>>
`)
}

func (a *App) cmdLogin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: login <username> <password>")
	}
	if err := a.session.Login(ctx, args[0], args[1]); err != nil {
		return err
	}
	user, _ := a.session.User()
	fmt.Fprintf(a.out, "signed in as %s\n", user.Username)
	return nil
}

func (a *App) cmdRegister(ctx context.Context, args []string) error {
	if len(args) < 4 {
		return fmt.Errorf("usage: register <username> <email> <password> <password-confirm> [first] [last]")
	}
	req := api.RegisterRequest{
		Username:        args[0],
		Email:           args[1],
		Password:        args[2],
		PasswordConfirm: args[3],
	}
	if len(args) > 4 {
		req.FirstName = args[4]
	}
	if len(args) > 5 {
		req.LastName = args[5]
	}
	if err := a.session.Register(ctx, req); err != nil {
		return err
	}
	user, _ := a.session.User()
	fmt.Fprintf(a.out, "registered and signed in as %s\n", user.Username)
	return nil
}

func (a *App) cmdWhoami() error {
	user, ok := a.session.User()
	if !ok {
		fmt.Fprintln(a.out, "not signed in")
		return nil
	}
	fmt.Fprintf(a.out, "%s (%s)\n", user.Username, user.Email)
	if expiry, ok := a.session.Expiry(); ok {
		fmt.Fprintf(a.out, "session expires %s\n", expiry.Format(time.RFC3339))
	}
	return nil
}

func (a *App) cmdProfile(ctx context.Context, args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "show":
		profile, ok := a.session.Profile()
		if !ok {
			a.session.RefreshProfile(ctx)
			profile, ok = a.session.Profile()
		}
		if !ok {
			fmt.Fprintln(a.out, "no profile available")
			return nil
		}
		fmt.Fprintf(a.out, "bio: %s\nlocation: %s\ngenres: %s\n", profile.Bio, profile.Location, profile.PreferredGenres)
		return nil
	case "refresh":
		a.session.RefreshProfile(ctx)
		fmt.Fprintln(a.out, "profile refreshed")
		return nil
	case "update":
		update := api.ProfileUpdate{Fields: map[string]string{}}
		for _, pair := range args[1:] {
			key, value, found := strings.Cut(pair, "=")
			if !found {
				return fmt.Errorf("profile update expects key=value pairs, got %q", pair)
			}
			update.Fields[key] = value
		}
		if len(update.Fields) == 0 {
			return fmt.Errorf("usage: profile update key=value ...")
		}
		if err := a.session.UpdateProfile(ctx, update); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "profile updated")
		return nil
	default:
		return fmt.Errorf("unknown profile subcommand %q", sub)
	}
}

func (a *App) cmdBooks(ctx context.Context, args []string) error {
	var (
		books []catalog.Book
		err   error
	)
	sub := "all"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "all":
		books, err = a.client.Books(ctx)
	case "mine":
		books, err = a.client.MyBooks(ctx)
	case "available":
		books, err = a.client.AvailableBooks(ctx)
	case "featured":
		books, err = a.client.FeaturedBooks(ctx)
	case "search":
		if len(args) < 2 {
			return fmt.Errorf("usage: books search <query>")
		}
		books, err = a.client.SearchBooks(ctx, api.BookSearchParams{Query: strings.Join(args[1:], " ")})
	default:
		return fmt.Errorf("unknown books subcommand %q", sub)
	}
	if err != nil {
		return err
	}
	a.printBooks(books)
	return nil
}

func (a *App) printBooks(books []catalog.Book) {
	if len(books) == 0 {
		fmt.Fprintln(a.out, "no books")
		return
	}
	for _, book := range books {
		var note string
		switch {
		case a.session.HasPermission(session.ActionEditBook, book):
			note = " (yours)"
		case a.session.HasPermission(session.ActionRequestBook, book):
			note = " (requestable)"
		}
		fmt.Fprintf(a.out, "%s  %s by %s [%s]%s\n", book.ID, book.Title, book.Author, book.Availability, note)
	}
}

func (a *App) cmdBook(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: book <show|add|remove> ...")
	}
	switch args[0] {
	case "show":
		if len(args) != 2 {
			return fmt.Errorf("usage: book show <id>")
		}
		book, err := a.client.Book(ctx, catalog.ID(args[1]))
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s by %s\ngenre: %s\ncondition: %s\nowner: %s\navailability: %s\n%s\n",
			book.Title, book.Author, book.Genre, book.Condition, book.OwnerName, book.Availability, book.Description)
		if book.ISBN != "" {
			if info, err := a.client.BookInfo(ctx, book.ID); err == nil {
				if info.PublishedDate != "" {
					fmt.Fprintf(a.out, "published: %s\n", info.PublishedDate)
				}
				if len(info.Categories) > 0 {
					fmt.Fprintf(a.out, "categories: %s\n", strings.Join(info.Categories, ", "))
				}
			}
		}
		return nil
	case "add":
		if len(args) < 3 {
			return fmt.Errorf("usage: book add <title> <author> [genre]")
		}
		book := catalog.Book{Title: args[1], Author: args[2]}
		if len(args) > 3 {
			book.Genre = args[3]
		}
		created, err := a.client.CreateBook(ctx, book)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "added book %s\n", created.ID)
		return nil
	case "remove":
		if len(args) != 2 {
			return fmt.Errorf("usage: book remove <id>")
		}
		if err := a.client.DeleteBook(ctx, catalog.ID(args[1])); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "book removed")
		return nil
	default:
		return fmt.Errorf("unknown book subcommand %q", args[0])
	}
}

func (a *App) cmdRequests(ctx context.Context, args []string) error {
	var (
		requests []catalog.BookRequest
		err      error
	)
	sub := "mine"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "mine":
		requests, err = a.client.MyRequests(ctx)
	case "incoming":
		requests, err = a.client.IncomingRequests(ctx)
	default:
		return fmt.Errorf("unknown requests subcommand %q", sub)
	}
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		fmt.Fprintln(a.out, "no requests")
		return nil
	}
	for _, req := range requests {
		var note string
		if a.session.HasPermission(session.ActionAcceptRequest, req) {
			note = " (awaiting your decision)"
		}
		fmt.Fprintf(a.out, "%s  %s wants %q [%s]%s\n", req.ID, req.RequesterName, req.Book.Title, req.Status, note)
	}
	return nil
}

func (a *App) cmdRequest(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: request <book-id> [message]")
	}
	input := api.CreateRequestInput{Book: catalog.ID(args[0]), RequestType: "borrow"}
	if len(args) > 1 {
		input.Message = strings.Join(args[1:], " ")
	}
	req, err := a.client.CreateRequest(ctx, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "request %s created\n", req.ID)
	return nil
}

func (a *App) cmdDecide(ctx context.Context, args []string, accept bool) error {
	verb := "decline"
	if accept {
		verb = "accept"
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <request-id>", verb)
	}
	id := catalog.ID(args[0])
	var err error
	if accept {
		err = a.client.AcceptRequest(ctx, id)
	} else {
		err = a.client.DeclineRequest(ctx, id)
	}
	if err != nil {
		return err
	}
	if accept {
		fmt.Fprintf(a.out, "request %s accepted\n", id)
	} else {
		fmt.Fprintf(a.out, "request %s declined\n", id)
	}
	return nil
}

func (a *App) cmdLoans(ctx context.Context, args []string) error {
	var (
		loans []catalog.Loan
		err   error
	)
	if len(args) > 0 && args[0] == "lent" {
		loans, err = a.client.MyLentBooks(ctx)
	} else {
		loans, err = a.client.MyLoans(ctx)
	}
	if err != nil {
		return err
	}
	if len(loans) == 0 {
		fmt.Fprintln(a.out, "no loans")
		return nil
	}
	now := time.Now()
	for _, loan := range loans {
		var due string
		switch {
		case loan.Returned:
			due = "returned"
		case loan.DueDate.IsZero():
			due = "no due date"
		case catalog.Overdue(loan, now):
			due = "overdue"
		default:
			due = fmt.Sprintf("due in %d days", catalog.DaysUntilDue(loan, now))
		}
		fmt.Fprintf(a.out, "%s  %q (%s)\n", loan.ID, loan.Book.Title, due)
	}
	return nil
}

func (a *App) cmdReturn(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: return <loan-id>")
	}
	if err := a.client.ReturnBook(ctx, catalog.ID(args[0])); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "book returned")
	return nil
}

func (a *App) cmdWishlist(ctx context.Context, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "list":
		items, err := a.client.WishlistWithAvailability(ctx)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintln(a.out, "wishlist is empty")
			return nil
		}
		for _, item := range items {
			fmt.Fprintf(a.out, "%s  %s by %s (%d available)\n", item.ID, item.Title, item.Author, len(item.AvailableBooks))
		}
		return nil
	case "add":
		if len(args) != 3 {
			return fmt.Errorf("usage: wishlist add <title> <author>")
		}
		item, err := a.client.AddToWishlist(ctx, api.WishlistAddInput{Title: args[1], Author: args[2]})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "added wishlist item %s\n", item.ID)
		return nil
	case "remove":
		if len(args) != 2 {
			return fmt.Errorf("usage: wishlist remove <id>")
		}
		if err := a.client.RemoveFromWishlist(ctx, catalog.ID(args[1])); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "wishlist item removed")
		return nil
	case "matches":
		if len(args) != 2 {
			return fmt.Errorf("usage: wishlist matches <id>")
		}
		matches, err := a.client.FindWishlistMatches(ctx, catalog.ID(args[1]))
		if err != nil {
			return err
		}
		a.printBooks(matches.MatchingBooks)
		return nil
	default:
		return fmt.Errorf("unknown wishlist subcommand %q", sub)
	}
}

func (a *App) cmdStats(ctx context.Context) error {
	stats, err := a.client.Statistics(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "books: %d\nmembers: %d\nactive loans: %d\nbooks shared: %d\n",
		stats.TotalBooks, stats.TotalMembers, stats.ActiveLoans, stats.BooksShared)
	return nil
}

func (a *App) cmdGoogle(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: google <search <query>|isbn <isbn>>")
	}
	switch args[0] {
	case "search":
		res, err := a.books.Search(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		a.printVolumes(res)
		return nil
	case "isbn":
		res, err := a.books.ByISBN(ctx, args[1])
		if err != nil {
			return err
		}
		a.printVolumes(res)
		return nil
	default:
		return fmt.Errorf("unknown google subcommand %q", args[0])
	}
}

func (a *App) printVolumes(res googlebooks.SearchResult) {
	if len(res.Items) == 0 {
		fmt.Fprintln(a.out, "no results")
		return
	}
	for _, vol := range res.Items {
		fmt.Fprintf(a.out, "%s  %s by %s (%s)\n",
			vol.ID, vol.VolumeInfo.Title, strings.Join(vol.VolumeInfo.Authors, ", "), vol.VolumeInfo.PublishedDate)
	}
}
