package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vbonduro/homeinspect/internal/client"
	"github.com/vbonduro/homeinspect/internal/config"
	"github.com/vbonduro/homeinspect/internal/form"
	"github.com/vbonduro/homeinspect/internal/logging"
	"github.com/vbonduro/homeinspect/internal/notify"
	"github.com/vbonduro/homeinspect/internal/session"
	"github.com/vbonduro/homeinspect/internal/upload"
	"github.com/vbonduro/homeinspect/internal/views"
)

// cli is the state shared by every command. The session is built once in
// the root's pre-run.
type cli struct {
	cfg      config.ClientConfig
	out      io.Writer
	logger   *slog.Logger
	notifier notify.Notifier
	sess     *session.Session
}

func newRootCmd(cfg *config.ClientConfig, stdout, stderr io.Writer) *cobra.Command {
	c := &cli{cfg: *cfg, out: stdout, notifier: notify.Writer{Out: stdout, Err: stderr}}

	root := &cobra.Command{
		Use:           "inspectctl",
		Short:         "Manage houses, inspections and inspection photos",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.logger = logging.NewText(stderr, c.cfg.LogLevel)
			sess, err := session.New(client.New(c.cfg.APIURL), c.cfg.TokenFile, c.logger)
			if err != nil {
				return err
			}
			c.sess = sess
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.cfg.APIURL, "api-url", cfg.APIURL, "homeinspect server URL")
	root.PersistentFlags().StringVar(&c.cfg.TokenFile, "token-file", cfg.TokenFile, "where the session token is kept")
	root.PersistentFlags().StringVar(&c.cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	root.AddCommand(
		c.authCmd("signup", "Create an account and sign in"),
		c.authCmd("signin", "Sign in to an existing account"),
		c.signOutCmd(),
		c.whoAmICmd(),
		c.housesCmd(),
		c.inspectionsCmd(),
		c.imagesCmd(),
	)
	return root
}

func (c *cli) authCmd(name, short string) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signIn := c.sess.SignIn
			if name == "signup" {
				signIn = c.sess.SignUp
			}
			user, err := signIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if name == "signup" {
				c.notifier.Success("Account created successfully!")
			} else {
				c.notifier.Success("Signed in successfully!")
			}
			fmt.Fprintln(c.out, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) signOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.sess.SignOut(cmd.Context()); err != nil {
				if !errors.Is(err, session.ErrNotSignedIn) {
					c.notifier.Error("Error signing out")
				}
				return err
			}
			c.notifier.Success("Signed out successfully")
			return nil
		},
	}
}

func (c *cli) whoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.sess.Current(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s\t%s\n", user.Email, user.ID)
			return nil
		},
	}
}

func (c *cli) housesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "houses", Short: "Manage houses"}

	var query string
	list := &cobra.Command{
		Use:   "list",
		Short: "List houses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tADDRESS\tINSPECTIONS")
			for _, h := range d.Houses(query) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", h.ID, h.Name, deref(h.Address), h.InspectionCount)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVarP(&query, "search", "s", "", "filter by name or address")

	var in form.HouseInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a house",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd)
			if err != nil {
				return err
			}
			h, err := d.CreateHouse(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, h.ID)
			return nil
		},
	}
	houseFlags(add, &in)

	var edit form.HouseInput
	editCmd := &cobra.Command{
		Use:   "edit <house-id>",
		Short: "Change a house; flags not given keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd)
			if err != nil {
				return err
			}
			current, ok := d.House(args[0])
			if !ok {
				return &views.NotFoundError{Entity: "house", Redirect: "/dashboard"}
			}
			if !cmd.Flags().Changed("name") {
				edit.Name = current.Name
			}
			if !cmd.Flags().Changed("address") {
				edit.Address = deref(current.Address)
			}
			_, err = d.UpdateHouse(cmd.Context(), args[0], edit)
			return err
		},
	}
	houseFlags(editCmd, &edit)

	rm := &cobra.Command{
		Use:   "rm <house-id>",
		Short: "Delete a house with its inspections and images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd)
			if err != nil {
				return err
			}
			return d.DeleteHouse(cmd.Context(), args[0])
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Summarize houses and inspections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd)
			if err != nil {
				return err
			}
			s := d.Stats()
			fmt.Fprintf(c.out, "houses: %d\ninspections: %d\nthis month: %d\n", s.TotalHouses, s.TotalInspections, s.HousesThisMonth)
			return nil
		},
	}

	cmd.AddCommand(list, add, editCmd, rm, stats)
	return cmd
}

func houseFlags(cmd *cobra.Command, in *form.HouseInput) {
	cmd.Flags().StringVar(&in.Name, "name", "", "house name")
	cmd.Flags().StringVar(&in.Address, "address", "", "street address")
}

func (c *cli) inspectionsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "inspections", Short: "Manage the inspections of a house"}

	var query string
	list := &cobra.Command{
		Use:   "list <house-id>",
		Short: "List inspections, latest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.houseDetail(cmd, args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tTITLE\tIMAGES\tNOTES")
			for _, in := range v.Inspections(query) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					in.ID, form.DateInput(in.InspectionDate), in.Title, count(in.ImageCount), deref(in.Notes))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVarP(&query, "search", "s", "", "filter by title or notes")

	var in form.InspectionInput
	add := &cobra.Command{
		Use:   "add <house-id>",
		Short: "Record an inspection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.houseDetail(cmd, args[0])
			if err != nil {
				return err
			}
			insp, err := v.CreateInspection(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, insp.ID)
			return nil
		},
	}
	inspectionFlags(add, &in)

	var edit form.InspectionInput
	editCmd := &cobra.Command{
		Use:   "edit <house-id> <inspection-id>",
		Short: "Change an inspection; flags not given keep their value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.houseDetail(cmd, args[0])
			if err != nil {
				return err
			}
			current, ok := findInspection(v.Inspections(""), args[1])
			if !ok {
				return &views.NotFoundError{Entity: "inspection", Redirect: "/houses/" + args[0] + "/inspections"}
			}
			if !cmd.Flags().Changed("title") {
				edit.Title = current.Title
			}
			if !cmd.Flags().Changed("notes") {
				edit.Notes = deref(current.Notes)
			}
			if !cmd.Flags().Changed("date") {
				edit.InspectionDate = current.InspectionDate.Format(time.RFC3339)
			}
			_, err = v.UpdateInspection(cmd.Context(), args[1], edit)
			return err
		},
	}
	inspectionFlags(editCmd, &edit)

	rm := &cobra.Command{
		Use:   "rm <house-id> <inspection-id>",
		Short: "Delete an inspection and its images",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.houseDetail(cmd, args[0])
			if err != nil {
				return err
			}
			return v.DeleteInspection(cmd.Context(), args[1])
		},
	}

	stats := &cobra.Command{
		Use:   "stats <house-id>",
		Short: "Summarize the inspections of a house",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.houseDetail(cmd, args[0])
			if err != nil {
				return err
			}
			s := v.Stats()
			latest := "none"
			if s.Latest != nil {
				latest = form.DateInput(*s.Latest)
			}
			fmt.Fprintf(c.out, "inspections: %d\nlatest: %s\nthis month: %d\n", s.Inspections, latest, s.ThisMonth)
			return nil
		},
	}

	cmd.AddCommand(list, add, editCmd, rm, stats)
	return cmd
}

func inspectionFlags(cmd *cobra.Command, in *form.InspectionInput) {
	cmd.Flags().StringVar(&in.Title, "title", "", "inspection title")
	cmd.Flags().StringVar(&in.InspectionDate, "date", "", "inspection date, YYYY-MM-DD")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "free-text notes")
}

func (c *cli) imagesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "images", Short: "Manage the photos of an inspection"}

	list := &cobra.Command{
		Use:   "list <house-id> <inspection-id>",
		Short: "List photos with their URLs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.inspectionDetail(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tURL")
			for _, img := range v.Images() {
				fmt.Fprintf(tw, "%s\t%s\n", img.Path, img.URL)
			}
			return tw.Flush()
		},
	}

	uploadCmd := &cobra.Command{
		Use:   "upload <house-id> <inspection-id> <file>...",
		Short: "Upload up to 10 photos at once",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.inspectionDetail(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			files := make([]upload.File, 0, len(args)-2)
			for _, path := range args[2:] {
				f, err := upload.FromPath(path)
				if err != nil {
					return err
				}
				files = append(files, f)
			}
			res, _, err := v.UploadImages(cmd.Context(), files)
			if err != nil {
				return err
			}
			for _, img := range res.Uploaded {
				fmt.Fprintln(c.out, img.Path)
			}
			if len(res.Failed) > 0 {
				return fmt.Errorf("%d of %d uploads failed", len(res.Failed), len(files))
			}
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <house-id> <inspection-id> <path>",
		Short: "Delete a photo",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.inspectionDetail(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			return v.DeleteImage(cmd.Context(), args[2])
		},
	}

	cmd.AddCommand(list, uploadCmd, rm)
	return cmd
}

func (c *cli) dashboard(cmd *cobra.Command) (*views.Dashboard, error) {
	d := views.NewDashboard(c.sess, c.notifier, c.logger)
	return d, d.Load(cmd.Context())
}

func (c *cli) houseDetail(cmd *cobra.Command, houseID string) (*views.HouseDetail, error) {
	v := views.NewHouseDetail(c.sess, c.notifier, c.logger)
	return v, v.Load(cmd.Context(), houseID)
}

func (c *cli) inspectionDetail(cmd *cobra.Command, houseID, inspectionID string) (*views.InspectionDetail, error) {
	v := views.NewInspectionDetail(c.sess, c.notifier, c.logger)
	return v, v.Load(cmd.Context(), houseID, inspectionID)
}

func findInspection(items []views.InspectionItem, id string) (views.InspectionItem, bool) {
	for _, in := range items {
		if in.ID == id {
			return in, true
		}
	}
	return views.InspectionItem{}, false
}

// count prints an unknown count as "-".
func count(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
