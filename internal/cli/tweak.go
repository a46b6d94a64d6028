package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scadkit/pkg/errors"
	"github.com/matzehuels/scadkit/pkg/pipeline"
	"github.com/matzehuels/scadkit/pkg/scad"
	"github.com/matzehuels/scadkit/pkg/scene"
	"github.com/matzehuels/scadkit/pkg/shape"
	"github.com/matzehuels/scadkit/pkg/transform"
)

var (
	tweakSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	tweakNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	tweakLabelStyle    = lipgloss.NewStyle().Foreground(colorGray).Width(22)
	tweakErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// tweakCommand creates the tweak command.
func (c *CLI) tweakCommand() *cobra.Command {
	var sf sceneFlags
	var output string

	cmd := &cobra.Command{
		Use:   "tweak [scene]",
		Short: "Adjust shape parameters and transforms interactively",
		Long: `Open an interactive editor for the scene's shape parameters and transform
values. The placement is re-evaluated on every change. On accept the scene
is written to --output (TOML or YAML by extension), or its OpenSCAD source
is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := sf.load(sceneArg(args))
			if err != nil {
				return err
			}
			m, err := newTweakModel(ctx, s)
			if err != nil {
				return err
			}

			final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(os.Stderr)).Run()
			if err != nil {
				return fmt.Errorf("run editor: %w", err)
			}
			result := final.(tweakModel)
			if !result.accepted {
				printInfo("Discarded changes")
				return nil
			}
			return writeTweaked(cmd, result.scene, output)
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the adjusted scene to this file")
	return cmd
}

func writeTweaked(cmd *cobra.Command, s scene.Scene, output string) error {
	if output == "" {
		src, err := scad.Emit(s)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(src)
		return err
	}
	format, err := scene.FormatFromPath(output)
	if err != nil {
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := scene.Encode(f, s, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	printSuccess("Saved scene")
	printFile(output)
	return nil
}

// =============================================================================
// Key Bindings
// =============================================================================

type tweakKeys struct {
	Up       key.Binding
	Down     key.Binding
	Inc      key.Binding
	Dec      key.Binding
	Finer    key.Binding
	Coarser  key.Binding
	Accept   key.Binding
	Quit     key.Binding
	ShowHelp key.Binding
}

func newTweakKeys() tweakKeys {
	return tweakKeys{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next")),
		Inc:      key.NewBinding(key.WithKeys("right", "l", "+"), key.WithHelp("→/+", "increase")),
		Dec:      key.NewBinding(key.WithKeys("left", "h", "-"), key.WithHelp("←/-", "decrease")),
		Finer:    key.NewBinding(key.WithKeys(","), key.WithHelp(",", "step ÷10")),
		Coarser:  key.NewBinding(key.WithKeys("."), key.WithHelp(".", "step ×10")),
		Accept:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("⏎", "accept")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "discard")),
		ShowHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	}
}

func (k tweakKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Inc, k.Dec, k.Accept, k.Quit, k.ShowHelp}
}

func (k tweakKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Inc, k.Dec, k.Finer, k.Coarser},
		{k.Accept, k.Quit, k.ShowHelp},
	}
}

// =============================================================================
// Model
// =============================================================================

// tweakField is one editable number in the scene.
type tweakField struct {
	label string
	get   func(s *scene.Scene) float64
	set   func(s *scene.Scene, v float64)
}

type tweakModel struct {
	ctx    context.Context
	scene  scene.Scene
	fields []tweakField
	cursor int
	step   float64

	placement transform.Placement
	err       error
	accepted  bool

	keys tweakKeys
	help help.Model
}

// newTweakModel prepares s for editing. Positional shape arguments are
// folded into named parameters so every value has a single home.
func newTweakModel(ctx context.Context, s scene.Scene) (tweakModel, error) {
	s, fields, err := tweakFields(s)
	if err != nil {
		return tweakModel{}, err
	}
	m := tweakModel{
		ctx:    ctx,
		scene:  s,
		fields: fields,
		step:   1,
		keys:   newTweakKeys(),
		help:   help.New(),
	}
	m.evaluate()
	return m, nil
}

func tweakFields(s scene.Scene) (scene.Scene, []tweakField, error) {
	if s.Shape.Kind == scene.KindPolygon {
		return s, nil, errors.New(errors.ErrCodeUnsupported, "tweak needs a generated shape, not a literal polygon")
	}
	g, err := shape.Lookup(s.Shape.Kind)
	if err != nil {
		return s, nil, err
	}

	specs := g.Params()
	params := shape.Params{}
	for i, spec := range specs {
		params[spec.Name] = spec.Default
		if i < len(s.Shape.Args) {
			params[spec.Name] = s.Shape.Args[i]
		}
	}
	for k, v := range s.Shape.Params.Fold(g) {
		params[k] = v
	}
	s.Shape.Params = params
	s.Shape.Args = nil

	var fields []tweakField
	for _, spec := range specs {
		name := spec.Name
		fields = append(fields, tweakField{
			label: fmt.Sprintf("%s %s", s.Shape.Kind, name),
			get:   func(s *scene.Scene) float64 { return s.Shape.Params[name] },
			set:   func(s *scene.Scene, v float64) { s.Shape.Params[name] = v },
		})
	}

	steps := make(transform.Pipeline, len(s.Transform))
	copy(steps, s.Transform)
	s.Transform = steps
	for i := range steps {
		fields = append(fields, stepFields(i, &steps[i])...)
	}
	return s, fields, nil
}

// stepFields returns the editable values of step i. The step's vector is
// copied and padded to three components.
func stepFields(i int, st *transform.Step) []tweakField {
	switch {
	case st.IsExtrude():
		return []tweakField{{
			label: fmt.Sprintf("%d linear_extrude h", i),
			get:   func(s *scene.Scene) float64 { return s.Transform[i].Height },
			set:   func(s *scene.Scene, v float64) { s.Transform[i].Height = v },
		}}
	case st.Op == transform.KindRotate && len(st.Axis) > 0:
		return []tweakField{{
			label: fmt.Sprintf("%d rotate a", i),
			get:   func(s *scene.Scene) float64 { return s.Transform[i].Angle },
			set:   func(s *scene.Scene, v float64) { s.Transform[i].Angle = v },
		}}
	}

	v := make([]float64, 3)
	copy(v, st.V)
	st.V = v
	fields := make([]tweakField, 3)
	for axis, name := range []string{"x", "y", "z"} {
		fields[axis] = tweakField{
			label: fmt.Sprintf("%d %s %s", i, st.Op, name),
			get:   func(s *scene.Scene) float64 { return s.Transform[i].V[axis] },
			set:   func(s *scene.Scene, v float64) { s.Transform[i].V[axis] = v },
		}
	}
	return fields
}

func (m *tweakModel) evaluate() {
	m.placement, m.err = pipeline.Evaluate(m.ctx, m.scene)
}

func (m tweakModel) Init() tea.Cmd {
	return nil
}

// adjust changes the selected value by delta. Maps are shared between
// model copies, so the scene is cloned first.
func (m tweakModel) adjust(delta float64) tweakModel {
	if len(m.fields) == 0 {
		return m
	}
	m.scene = cloneScene(m.scene)
	f := m.fields[m.cursor]
	f.set(&m.scene, roundStep(f.get(&m.scene)+delta, m.step))
	m.evaluate()
	return m
}

func (m tweakModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.accepted = false
			return m, tea.Quit
		case key.Matches(msg, m.keys.Accept):
			if m.err != nil {
				return m, nil
			}
			m.accepted = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.fields)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Inc):
			return m.adjust(m.step), nil
		case key.Matches(msg, m.keys.Dec):
			return m.adjust(-m.step), nil
		case key.Matches(msg, m.keys.Finer):
			if m.step > 0.001 {
				m.step /= 10
			}
		case key.Matches(msg, m.keys.Coarser):
			if m.step < 100 {
				m.step *= 10
			}
		case key.Matches(msg, m.keys.ShowHelp):
			m.help.ShowAll = !m.help.ShowAll
		}
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	}
	return m, nil
}

func (m tweakModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Tweak " + m.sceneName()))
	b.WriteString("  " + StyleDim.Render("step "+transform.FormatNumber(m.step)))
	b.WriteString("\n\n")

	for i, f := range m.fields {
		cursor, style := "  ", tweakNormalStyle
		if i == m.cursor {
			cursor, style = "▸ ", tweakSelectedStyle
		}
		b.WriteString(cursor + tweakLabelStyle.Render(f.label) + style.Render(transform.FormatNumber(f.get(&m.scene))) + "\n")
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(tweakErrorStyle.Render(iconError+" "+errors.UserMessage(m.err)) + "\n")
	} else {
		pl := m.placement
		b.WriteString(tweakLabelStyle.Render("  centroid") + StyleValue.Render(fmtVec(pl.Centroid)) + "\n")
		b.WriteString(tweakLabelStyle.Render("  bounds") + StyleValue.Render(fmtVec(pl.Bounds.Min)+" .. "+fmtVec(pl.Bounds.Max)) + "\n")
		b.WriteString(tweakLabelStyle.Render("  source") + StyleDim.Render(pl.Pipeline.String()) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys) + "\n")
	return b.String()
}

func (m tweakModel) sceneName() string {
	if m.scene.Name != "" {
		return m.scene.Name
	}
	return m.scene.Shape.Kind
}

func cloneScene(s scene.Scene) scene.Scene {
	params := make(shape.Params, len(s.Shape.Params))
	for k, v := range s.Shape.Params {
		params[k] = v
	}
	s.Shape.Params = params

	steps := make(transform.Pipeline, len(s.Transform))
	for i, st := range s.Transform {
		st.V = append([]float64(nil), st.V...)
		st.Axis = append([]float64(nil), st.Axis...)
		steps[i] = st
	}
	s.Transform = steps
	return s
}

// roundStep rounds v to the precision of step (at most nine decimals),
// hiding float drift such as 0.30000000000000004.
func roundStep(v, step float64) float64 {
	inv := 1e9
	if step < 1 {
		inv = math.Round(1 / step)
	}
	return math.Round(v*inv) / inv
}
