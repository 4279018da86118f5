package boardcore

import (
	"context"

	"github.com/pkg/errors"
	"go.viam.com/rdk/components/board"
	"go.viam.com/rdk/components/generic"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/utils"
)

// Model is the resource model this module registers under generic.API (spec
// SPEC_FULL.md DOMAIN STACK: "a supervisory resource that composes a motor +
// movement sensor + board, not itself a motor or sensor").
var Model = resource.NewModel("viam", "self-balance", "board")

func init() {
	resource.RegisterComponent(generic.API, Model, resource.Registration[resource.Resource, *Config]{
		Constructor: newComponent,
	})
}

// component adapts a *CoreState to resource.Resource and owns the loop
// task's lifetime, following tmc5072.Motor's resource.Named embedding shape.
type component struct {
	resource.Named
	resource.AlwaysRebuild
	core   *CoreState
	cancel context.CancelFunc
	done   chan struct{}
}

// newComponent resolves dependencies by name and starts the control loop,
// the same validate-then-build-then-run shape as tmc5072.newMotor/makeMotor.
func newComponent(ctx context.Context, deps resource.Dependencies, conf resource.Config, logger logging.Logger) (resource.Resource, error) {
	cfg, err := resource.NativeConfig[*Config](conf)
	if err != nil {
		return nil, err
	}

	motorDep, err := lookupByName[Motor](deps, cfg.MotorName)
	if err != nil {
		return nil, errors.Wrap(err, "motor dependency")
	}
	imuDep, err := lookupByName[IMU](deps, cfg.IMUName)
	if err != nil {
		return nil, errors.Wrap(err, "imu dependency")
	}

	coreDeps := Dependencies{Motor: motorDep, IMU: imuDep}

	var b board.Board
	if cfg.BoardName != "" {
		b, err = board.FromDependencies(deps, cfg.BoardName)
		if err != nil {
			return nil, errors.Wrap(err, "board dependency")
		}
	}

	if b != nil && cfg.PadLeftPin != "" {
		reader, ok := b.AnalogReaderByName(cfg.PadLeftPin)
		if !ok {
			return nil, errors.Errorf("board %q has no analog reader %q", cfg.BoardName, cfg.PadLeftPin)
		}
		coreDeps.PadLeft = NewBoardAnalogPad(reader, cfg.VReg)
	}
	if b != nil && cfg.PadRightPin != "" {
		reader, ok := b.AnalogReaderByName(cfg.PadRightPin)
		if !ok {
			return nil, errors.Errorf("board %q has no analog reader %q", cfg.BoardName, cfg.PadRightPin)
		}
		coreDeps.PadRight = NewBoardAnalogPad(reader, cfg.VReg)
	}
	if b != nil && cfg.BuzzerPin != "" {
		pin, err := b.GPIOPinByName(cfg.BuzzerPin)
		if err != nil {
			return nil, errors.Wrap(err, "buzzer pin")
		}
		coreDeps.Buzzer = NewGPIOBuzzer(pin, utils.SelectContextOrWait)
	}
	if b != nil && cfg.BrakeLightPin != "" {
		pin, err := b.GPIOPinByName(cfg.BrakeLightPin)
		if err != nil {
			return nil, errors.Wrap(err, "brake light pin")
		}
		coreDeps.BrakeLight = NewGPIOLight(pin)
	}
	if b != nil && cfg.ForwardLightPin != "" {
		pin, err := b.GPIOPinByName(cfg.ForwardLightPin)
		if err != nil {
			return nil, errors.Wrap(err, "forward light pin")
		}
		coreDeps.ForwardLight = NewGPIOLight(pin)
	}

	core, err := NewCoreState(*cfg, coreDeps, logger)
	if err != nil {
		return nil, err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	comp := &component{
		Named:  conf.ResourceName().AsNamed(),
		core:   core,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(comp.done)
		if err := core.Run(loopCtx); err != nil && loopCtx.Err() == nil {
			logger.CErrorw(loopCtx, "control loop exited", "error", err)
		}
	}()
	return comp, nil
}

// DoCommand dispatches to the core's app_balance_* CLI verbs (spec §6.5).
func (c *component) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	return c.core.DoCommand(ctx, cmd)
}

// Close stops the control loop, issuing the shutdown sequence (brake_off,
// beep_off(force), brake) before returning (spec §5 "Cancellation").
func (c *component) Close(ctx context.Context) error {
	c.cancel()
	select {
	case <-c.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// lookupByName finds a dependency resource by name regardless of its
// registered API and asserts it implements T — the duck-typed wiring spec
// §6 calls for, since the Motor/IMU capability sets have no matching RDK
// component API to look up through (SPEC_FULL.md DOMAIN STACK).
func lookupByName[T any](deps resource.Dependencies, name string) (T, error) {
	var zero T
	if name == "" {
		return zero, errors.New("not configured")
	}
	for n, res := range deps {
		if n.Name != name {
			continue
		}
		t, ok := res.(T)
		if !ok {
			return zero, errors.Errorf("resource %q does not implement the required interface", name)
		}
		return t, nil
	}
	return zero, errors.Errorf("resource %q not found in dependencies", name)
}
