package cli

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	catalogCmd "github.com/Oscarts/backery2-app-sub005/internal/application/catalog/commands"
)

// catalogFile is the on-disk layout of a catalog import. Quantities are strings so
// that decimal values survive YAML and JSON float parsing.
type catalogFile struct {
	RawMaterials         []catalogItem   `mapstructure:"raw_materials"`
	IntermediateProducts []catalogItem   `mapstructure:"intermediate_products"`
	Recipes              []catalogRecipe `mapstructure:"recipes"`
}

type catalogItem struct {
	Name         string `mapstructure:"name"`
	Unit         string `mapstructure:"unit"`
	Quantity     string `mapstructure:"quantity"`
	UnitCost     string `mapstructure:"unit_cost"`
	SKU          string `mapstructure:"sku"`
	Contaminated bool   `mapstructure:"contaminated"`
}

type catalogRecipe struct {
	Name          string              `mapstructure:"name"`
	Description   string              `mapstructure:"description"`
	YieldQuantity string              `mapstructure:"yield_quantity"`
	YieldUnit     string              `mapstructure:"yield_unit"`
	Ingredients   []catalogIngredient `mapstructure:"ingredients"`
}

type catalogIngredient struct {
	Material string `mapstructure:"material"`
	Type     string `mapstructure:"type"`
	Quantity string `mapstructure:"quantity"`
	Unit     string `mapstructure:"unit"`
}

// NewCatalogCommand creates the catalog command with subcommands
func NewCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage recipes and inventory items",
	}
	cmd.AddCommand(newCatalogImportCommand())
	return cmd
}

func newCatalogImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import raw materials, intermediate products and recipes",
		Long: `Import a catalog file (YAML or JSON). Items are matched by name and
updated in place; recipes are matched by name and their ingredient lists replaced.

Example file:
  raw_materials:
    - name: Flour
      unit: g
      quantity: "1000"
      unit_cost: "0.002"
  recipes:
    - name: Bread
      yield_quantity: "10"
      yield_unit: pcs
      ingredients:
        - material: Flour
          quantity: "50"
          unit: g

Example:
  bakery catalog import ./catalog.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := readCatalogFile(args[0])
			if err != nil {
				return err
			}

			return withApp(func(a *app) error {
				command, err := file.toCommand(a.tenant())
				if err != nil {
					return err
				}

				result, err := a.send(command)
				if err != nil {
					return err
				}
				response := result.(*catalogCmd.ImportCatalogResponse)

				if outputJSON {
					fmt.Println(prettyPrint(response))
					return nil
				}

				fmt.Printf("✓ Imported %d items and %d recipes\n", len(response.Items), len(response.Recipes))
				names := make([]string, 0, len(response.Recipes))
				for name := range response.Recipes {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Printf("  Recipe %-24s %s\n", name, response.Recipes[name])
				}
				return nil
			})
		},
	}
}

func readCatalogFile(path string) (*catalogFile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file catalogFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	return &file, nil
}

func (f *catalogFile) toCommand(tenant string) (*catalogCmd.ImportCatalogCommand, error) {
	command := &catalogCmd.ImportCatalogCommand{TenantID: tenant}

	for _, item := range f.RawMaterials {
		spec, err := item.toSpec()
		if err != nil {
			return nil, err
		}
		command.RawMaterials = append(command.RawMaterials, spec)
	}
	for _, item := range f.IntermediateProducts {
		spec, err := item.toSpec()
		if err != nil {
			return nil, err
		}
		command.IntermediateProducts = append(command.IntermediateProducts, spec)
	}

	for _, r := range f.Recipes {
		yield, err := parseDecimal(r.Name+" yield_quantity", r.YieldQuantity)
		if err != nil {
			return nil, err
		}
		spec := catalogCmd.RecipeSpec{
			Name:          r.Name,
			Description:   r.Description,
			YieldQuantity: yield,
			YieldUnit:     r.YieldUnit,
		}
		for _, ing := range r.Ingredients {
			qty, err := parseDecimal(r.Name+"/"+ing.Material+" quantity", ing.Quantity)
			if err != nil {
				return nil, err
			}
			spec.Ingredients = append(spec.Ingredients, catalogCmd.IngredientSpec{
				Material: ing.Material,
				Type:     ing.Type,
				Quantity: qty,
				Unit:     ing.Unit,
			})
		}
		command.Recipes = append(command.Recipes, spec)
	}
	return command, nil
}

func (i catalogItem) toSpec() (catalogCmd.ItemSpec, error) {
	qty, err := parseDecimal(i.Name+" quantity", i.Quantity)
	if err != nil {
		return catalogCmd.ItemSpec{}, err
	}
	cost, err := parseDecimal(i.Name+" unit_cost", i.UnitCost)
	if err != nil {
		return catalogCmd.ItemSpec{}, err
	}
	return catalogCmd.ItemSpec{
		Name:         i.Name,
		Unit:         i.Unit,
		Quantity:     qty,
		UnitCost:     cost,
		SKU:          i.SKU,
		Contaminated: i.Contaminated,
	}, nil
}

// parseDecimal parses a decimal flag or file value; empty means zero
func parseDecimal(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	return d, nil
}
