// Package simulator provides an in-memory AVR target for tests, demos and
// dry runs of the programming sequence.
//
//	sim := simulator.New(0x9507)
//	sim.FailPage(0x0080, errors.New("page verify failed"))
//
//	ctrl := programmer.New(sim, catalog.Builtin())
//	_, err := ctrl.Run(ctx)
//
//	for _, op := range sim.Ops() {
//	    fmt.Println(op)
//	}
package simulator
