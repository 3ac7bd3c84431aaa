package impact

const (
	LabelCurrent   = "Current"
	LabelProjected = "Projected"
)

// Comparison is the two-bar chart contrasting current monthly energy with the energy left
// after the suggested optimizations.
type Comparison struct {
	Title  string     `json:"title"`
	XAxis  string     `json:"x_axis"`
	YAxis  string     `json:"y_axis"`
	Labels [2]string  `json:"labels"`
	Values [2]float64 `json:"values"`
	Colors [2]string  `json:"colors"`
}

// NewComparison builds the chart for a current usage and projected savings, both in kWh/month.
// The projected bar never drops below 0, even if the model reports savings above current usage.
func NewComparison(currentKWH, savingsKWH float64) Comparison {
	projected := currentKWH - savingsKWH
	if projected < 0 {
		projected = 0
	}
	return Comparison{
		Title:  "Energy Consumption Comparison",
		XAxis:  "Scenario",
		YAxis:  "Energy (kWh)",
		Labels: [2]string{LabelCurrent, LabelProjected},
		Values: [2]float64{currentKWH, projected},
		Colors: [2]string{"#FF4B4B", "#00CC96"},
	}
}

// Current returns the current energy in kWh.
func (c Comparison) Current() float64 { return c.Values[0] }

// Projected returns the projected energy in kWh.
func (c Comparison) Projected() float64 { return c.Values[1] }

// Max returns the tallest bar, used to scale rendered charts.
func (c Comparison) Max() float64 {
	if c.Values[0] > c.Values[1] {
		return c.Values[0]
	}
	return c.Values[1]
}
