package commands

import (
	"errors"

	"jpog-tmd/internal/batch"
	"jpog-tmd/internal/diag"
	"jpog-tmd/internal/printer"
)

// openModel decodes path and its key pool, printing diagnostics as they
// are reported.
func openModel(path string) (*batch.Source, *diag.Collector, error) {
	col := diag.NewCollector(printer.Logger())
	src, err := batch.Open(path, col)
	if err != nil {
		return nil, col, failure("Cannot read "+path, err)
	}
	return src, col, nil
}

// failure prints err with a hint chosen by its kind.
func failure(title string, err error) error {
	var hint []string
	switch {
	case errors.Is(err, diag.ErrMalformedContainer):
		hint = []string{"The file is damaged or is not a TMD/TKL file"}
	case errors.Is(err, diag.ErrMissingCompanion):
		hint = []string{"Keep the .tkl key pool next to the model, named as the model's header says"}
	case errors.Is(err, diag.ErrIOPermission):
		hint = []string{"Choose an output location you can write to"}
	case errors.Is(err, diag.ErrPieceOverflow):
		hint = []string{"Raise --max-pieces or split the mesh"}
	case errors.Is(err, diag.ErrKeyPoolOverflow):
		hint = []string{"Drop clips or rebuild without --append-anims"}
	case errors.Is(err, diag.ErrBoneMismatch):
		hint = []string{"Use --anims to write a new bone order"}
	}
	return printer.Error(title, err.Error(), nil, hint...)
}
