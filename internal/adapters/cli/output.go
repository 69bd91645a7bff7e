package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Oscarts/backery2-app-sub005/internal/adapters/metrics"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub005/internal/domain/production"
)

// Exit codes by error outcome
var exitCodes = map[string]int{
	"insufficient_inventory": 2,
	"incomplete_steps":       3,
	"invalid_transition":     3,
	"not_found":              4,
	"consistency_error":      5,
	"storage_error":          6,
}

func exitCode(err error) int {
	if code, ok := exitCodes[metrics.ClassifyError(err)]; ok {
		return code
	}
	return 1
}

type allocationView struct {
	ID                string     `json:"id"`
	MaterialType      string     `json:"material_type"`
	MaterialID        string     `json:"material_id"`
	MaterialName      string     `json:"material_name"`
	Unit              string     `json:"unit"`
	QuantityAllocated string     `json:"quantity_allocated"`
	QuantityConsumed  string     `json:"quantity_consumed"`
	UnitCost          string     `json:"unit_cost"`
	Status            string     `json:"status"`
	AllocatedAt       time.Time  `json:"allocated_at"`
	ConsumedAt        *time.Time `json:"consumed_at,omitempty"`
	ReleasedAt        *time.Time `json:"released_at,omitempty"`
}

type stepView struct {
	ID          string     `json:"id"`
	Order       int        `json:"order"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

type batchView struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	SKU            string     `json:"sku"`
	BatchNumber    string     `json:"batch_number"`
	Quantity       string     `json:"quantity"`
	Unit           string     `json:"unit"`
	CostToProduce  string     `json:"cost_to_produce"`
	QualityStatus  string     `json:"quality_status"`
	ProductionDate time.Time  `json:"production_date"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

type runView struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	RecipeID        string           `json:"recipe_id"`
	TargetQuantity  string           `json:"target_quantity"`
	TargetUnit      string           `json:"target_unit"`
	Status          string           `json:"status"`
	Notes           string           `json:"notes,omitempty"`
	Steps           []stepView       `json:"steps"`
	Allocations     []allocationView `json:"allocations"`
	FinishedProduct *batchView       `json:"finished_product,omitempty"`
}

func allocationViews(allocations []*production.Allocation) []allocationView {
	views := make([]allocationView, 0, len(allocations))
	for _, a := range allocations {
		views = append(views, allocationView{
			ID:                a.ID(),
			MaterialType:      string(a.Material().Type()),
			MaterialID:        a.Material().ID(),
			MaterialName:      a.MaterialName(),
			Unit:              a.Unit(),
			QuantityAllocated: a.QuantityAllocated().String(),
			QuantityConsumed:  a.QuantityConsumed().String(),
			UnitCost:          a.UnitCost().String(),
			Status:            string(a.Status()),
			AllocatedAt:       a.AllocatedAt(),
			ConsumedAt:        a.ConsumedAt(),
			ReleasedAt:        a.ReleasedAt(),
		})
	}
	return views
}

func newBatchView(p *inventory.FinishedProduct) batchView {
	return batchView{
		ID:             p.ID(),
		Name:           p.Name(),
		SKU:            p.SKU(),
		BatchNumber:    p.BatchNumber(),
		Quantity:       p.Quantity().String(),
		Unit:           p.Unit(),
		CostToProduce:  p.CostToProduce().StringFixed(2),
		QualityStatus:  string(p.QualityStatus()),
		ProductionDate: p.ProductionDate(),
		ExpirationDate: p.ExpirationDate(),
	}
}

func newRunView(run *production.Run, product *inventory.FinishedProduct) runView {
	view := runView{
		ID:             run.ID(),
		Name:           run.Name(),
		RecipeID:       run.RecipeID(),
		TargetQuantity: run.TargetQuantity().String(),
		TargetUnit:     run.TargetUnit(),
		Status:         string(run.Status()),
		Notes:          run.Notes(),
		Allocations:    allocationViews(run.Allocations()),
	}
	for _, s := range run.Steps() {
		view.Steps = append(view.Steps, stepView{
			ID:          s.ID(),
			Order:       s.Order(),
			Name:        s.Name(),
			Status:      string(s.Status()),
			StartedAt:   s.StartedAt(),
			CompletedAt: s.CompletedAt(),
			Notes:       s.Notes(),
		})
	}
	if product != nil {
		batch := newBatchView(product)
		view.FinishedProduct = &batch
	}
	return view
}

func printRun(run *production.Run, product *inventory.FinishedProduct) {
	if outputJSON {
		fmt.Println(prettyPrint(newRunView(run, product)))
		return
	}

	fmt.Printf("Run %s\n", run.ID())
	fmt.Printf("  Name:      %s\n", run.Name())
	fmt.Printf("  Recipe:    %s\n", run.RecipeID())
	fmt.Printf("  Target:    %s %s\n", run.TargetQuantity(), run.TargetUnit())
	fmt.Printf("  Status:    %s\n", run.Status())
	if run.Notes() != "" {
		fmt.Printf("  Notes:     %s\n", run.Notes())
	}

	fmt.Println("\nSteps:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  #\tSTEP\tSTATUS\tID")
	for _, s := range run.Steps() {
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", s.Order(), s.Name(), s.Status(), s.ID())
	}
	w.Flush()

	if allocations := run.Allocations(); len(allocations) > 0 {
		fmt.Println("\nAllocations:")
		printAllocations(allocations)
	}

	if product != nil {
		fmt.Println("\nFinished batch:")
		fmt.Printf("  %s  %s  %s %s  cost %s\n",
			product.SKU(), product.BatchNumber(), product.Quantity(), product.Unit(), product.CostToProduce().StringFixed(2))
	}
}

func printAllocations(allocations []*production.Allocation) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  MATERIAL\tTYPE\tALLOCATED\tCONSUMED\tUNIT\tSTATUS")
	for _, a := range allocations {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n",
			a.MaterialName(), a.Material().Type(), a.QuantityAllocated(), a.QuantityConsumed(), a.Unit(), a.Status())
	}
	w.Flush()
}

func printBatches(batches []*inventory.FinishedProduct) {
	if outputJSON {
		views := make([]batchView, 0, len(batches))
		for _, b := range batches {
			views = append(views, newBatchView(b))
		}
		fmt.Println(prettyPrint(views))
		return
	}
	if len(batches) == 0 {
		fmt.Println("No batches found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BATCH\tPRODUCT\tQUANTITY\tCOST\tQUALITY\tPRODUCED")
	for _, b := range batches {
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\t%s\n",
			b.BatchNumber(), b.Name(), b.Quantity(), b.Unit(), b.CostToProduce().StringFixed(2),
			b.QualityStatus(), b.ProductionDate().Format("2006-01-02 15:04"))
	}
	w.Flush()
}
