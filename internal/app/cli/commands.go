// Package cli implements the petportal operator command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Apurer/pet-portal/internal/domains/listings/adapters/rest"
	"github.com/Apurer/pet-portal/internal/domains/listings/adapters/transfer"
	listingworkflows "github.com/Apurer/pet-portal/internal/domains/listings/adapters/workflows"
	listingsapp "github.com/Apurer/pet-portal/internal/domains/listings/application"
	"github.com/Apurer/pet-portal/internal/domains/listings/application/form"
	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
	listingsports "github.com/Apurer/pet-portal/internal/domains/listings/ports"
	"github.com/Apurer/pet-portal/internal/platform/httpclient"
)

type app struct {
	profilePath string
	output      string
	profile     Profile
	gateway     listingsports.Gateway
	coordinator listingsports.Coordinator
}

// NewRootCommand builds the petportal command tree writing results to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "petportal",
		Short:         "Operate pet listings against a listing backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.connect(cmd.Flags().Changed("config"))
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.profilePath, "config", DefaultProfilePath(), "profile file")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "yaml", "output format (yaml or json)")

	root.AddCommand(a.referenceCmd(), a.listingsCmd())
	return root
}

func (a *app) connect(explicitProfile bool) error {
	profile, err := LoadProfile(a.profilePath, explicitProfile)
	if err != nil {
		return err
	}
	if profile.BackendURL == "" {
		return errors.New("backend_url is not configured (profile or PETPORTAL_BACKEND_URL)")
	}
	timeout, err := profile.HTTPTimeout()
	if err != nil {
		return err
	}
	backend, err := httpclient.New(profile.BackendURL, timeout)
	if err != nil {
		return err
	}
	uploads, err := httpclient.New(profile.UploadServiceURL, timeout)
	if err != nil {
		return err
	}
	objects, err := httpclient.New("", timeout)
	if err != nil {
		return err
	}
	gateway, err := rest.NewClient(backend, rest.WithUploadClient(uploads))
	if err != nil {
		return err
	}
	a.profile = profile
	a.gateway = gateway
	a.coordinator = listingsapp.NewCoordinator(gateway, transfer.NewUploader(objects), listingworkflows.NewInlineListingWorkflows(gateway))
	return nil
}

func (a *app) referenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reference",
		Short: "Print countries, provinces, pet types and age options",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.print(cmd, map[string]any{
				"countries":      domain.Countries,
				"provinces":      domain.Provinces,
				"major_cities":   domain.MajorCities,
				"pet_types":      domain.PetTypes,
				"age_categories": domain.AgeCategories,
				"pet_ages":       domain.PetAges,
			})
		},
	}
}

func (a *app) listingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "listings",
		Aliases: []string{"pets"},
		Short:   "Search and manage listings",
	}
	cmd.AddCommand(
		a.listCmd(),
		a.getCmd(),
		a.ownerCmd(),
		a.deleteCmd(),
		a.createCmd(),
		a.updateCmd(),
	)
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var (
		filter   listingtypes.ListFilter
		maxPrice float64
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("price") {
				filter.Price = &maxPrice
			}
			page, err := a.gateway.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return a.print(cmd, page)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&filter.Type, "type", "", "pet type")
	flags.StringVar(&filter.Age, "age", "", "age category")
	flags.StringVar(&filter.Sort, "sort", "", "sort order (name, age, type, price_asc, price_desc)")
	flags.StringVar(&filter.Country, "country", "", "country")
	flags.StringVar(&filter.Province, "province", "", "province or state")
	flags.StringVar(&filter.Town, "town", "", "town")
	flags.StringVar(&filter.Gender, "gender", "", "gender")
	flags.Float64Var(&maxPrice, "price", 0, "maximum price")
	flags.IntVar(&filter.Limit, "limit", 0, "page size")
	flags.StringVar(&filter.NextToken, "next-token", "", "continue from a previous page")
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get LISTING_ID",
		Short: "Show one listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listing, err := a.gateway.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd, listing)
		},
	}
}

func (a *app) ownerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "owner [OWNER_ID]",
		Short: "List the listings of an owner (defaults to the profile owner)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerID, err := a.ownerID(args)
			if err != nil {
				return err
			}
			listings, err := a.gateway.ListByOwner(cmd.Context(), ownerID)
			if err != nil {
				return err
			}
			if listings == nil {
				listings = []domain.Listing{}
			}
			return a.print(cmd, listings)
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete LISTING_ID",
		Short: "Delete a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.gateway.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

type submitFlags struct {
	draftPath string
	mainImage string
	images    []string
}

func (f *submitFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.draftPath, "file", "f", "", "YAML draft with listing fields")
	cmd.Flags().StringVar(&f.mainImage, "main", "", "main image path")
	cmd.Flags().StringArrayVar(&f.images, "image", nil, "additional image path (repeatable)")
}

func (a *app) createCmd() *cobra.Command {
	var (
		flags   submitFlags
		ownerID string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a listing from a draft and local images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, err := a.ownerID(nonEmpty(ownerID))
			if err != nil {
				return err
			}
			listingForm := form.NewCreateForm(owner)
			return a.submit(cmd, listingForm, flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id (defaults to the profile owner)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var flags submitFlags
	cmd := &cobra.Command{
		Use:   "update LISTING_ID",
		Short: "Update a listing; stored images are kept unless new ones are given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			existing, err := a.gateway.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if existing.ID == "" {
				existing.ID = args[0]
			}
			return a.submit(cmd, form.NewEditForm(*existing), flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) submit(cmd *cobra.Command, listingForm *form.Form, flags submitFlags) error {
	if flags.draftPath != "" {
		draft, err := ReadDraft(flags.draftPath)
		if err != nil {
			return err
		}
		if err := draft.Apply(listingForm); err != nil {
			return err
		}
	}
	if flags.mainImage != "" {
		image, err := ReadImage(flags.mainImage)
		if err != nil {
			return err
		}
		listingForm.SelectMainImage(image)
	}
	if len(flags.images) > 0 {
		gallery := make([]domain.ImageFile, 0, len(flags.images))
		for _, path := range flags.images {
			image, err := ReadImage(path)
			if err != nil {
				return err
			}
			gallery = append(gallery, image)
		}
		listingForm.SelectAdditionalImages(gallery)
	}

	var result *listingtypes.FinalizeResult
	err := listingForm.Submit(cmd.Context(), func(ctx context.Context, submission form.Submission) error {
		var err error
		result, err = a.coordinator.Submit(ctx, listingtypes.SubmitRequest{Submission: submission})
		return err
	})
	if err != nil {
		return err
	}
	return a.print(cmd, map[string]any{"pet_id": result.ListingID, "pet": result.Listing})
}

func (a *app) ownerID(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	if a.profile.OwnerID == "" {
		return "", errors.New("owner id is required (argument, --owner, or owner_id in the profile)")
	}
	return a.profile.OwnerID, nil
}

func (a *app) print(cmd *cobra.Command, value any) error {
	out := cmd.OutOrStdout()
	switch a.output {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	case "yaml", "":
		// Round-trip through JSON so YAML keys follow the wire names.
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(generic); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unknown output format %q", a.output)
	}
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
