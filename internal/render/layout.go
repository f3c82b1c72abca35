package render

// Layout is the card arrangement chosen from the number of regular links.
type Layout int

const (
	LayoutStacked Layout = iota // one column
	LayoutGrid                  // two columns
	LayoutDense                 // three columns
)

func (l Layout) String() string {
	switch l {
	case LayoutGrid:
		return "grid"
	case LayoutDense:
		return "dense"
	default:
		return "stacked"
	}
}

const (
	canvasWidth     = 600
	cardsTop        = 120
	bottomPadding   = 60
	minHeight       = 600
	socialBand      = 120 // height of the band holding one badge row
	badgeRadius     = 22
	badgePitch      = 60
	cardColumnGap   = 20
	stackedMaxCount = 6
	gridMaxCount    = 13
)

type layoutSpec struct {
	columns     int
	cardWidth   int
	cardHeight  int
	rowPitch    int
	titleBudget int
}

var layoutSpecs = map[Layout]layoutSpec{
	LayoutStacked: {columns: 1, cardWidth: 500, cardHeight: 70, rowPitch: 90, titleBudget: 30},
	LayoutGrid:    {columns: 2, cardWidth: 250, cardHeight: 80, rowPitch: 100, titleBudget: 15},
	LayoutDense:   {columns: 3, cardWidth: 160, cardHeight: 80, rowPitch: 100, titleBudget: 12},
}

// ChooseLayout picks the layout for a count of regular (non-social) links.
// Social links never influence the choice; they live in their own band.
func ChooseLayout(regularCount int) Layout {
	switch {
	case regularCount <= stackedMaxCount:
		return LayoutStacked
	case regularCount <= gridMaxCount:
		return LayoutGrid
	default:
		return LayoutDense
	}
}

// TitleBudget is the character budget for card titles in layout l.
func TitleBudget(l Layout) int {
	return layoutSpecs[l].titleBudget
}

// badgesPerRow is how many badges fit across the canvas.
const badgesPerRow = canvasWidth / badgePitch

// PageHeight is the canvas height for regularCount cards in layout l
// followed by socialCount badges.
func PageHeight(l Layout, regularCount, socialCount int) int {
	spec := layoutSpecs[l]
	rows := (regularCount + spec.columns - 1) / spec.columns
	h := cardsTop + rows*spec.rowPitch + bottomPadding
	if h < minHeight {
		h = minHeight
	}
	return h + socialBandHeight(socialCount)
}

// socialBandHeight grows by one badge pitch for every row past the first.
func socialBandHeight(socialCount int) int {
	if socialCount == 0 {
		return 0
	}
	rows := (socialCount + badgesPerRow - 1) / badgesPerRow
	return socialBand + (rows-1)*badgePitch
}

// cardOrigin returns the top-left corner of card i.
func cardOrigin(spec layoutSpec, i int) (x, y int) {
	col := i % spec.columns
	row := i / spec.columns
	rowWidth := spec.columns*spec.cardWidth + (spec.columns-1)*cardColumnGap
	left := (canvasWidth - rowWidth) / 2
	return left + col*(spec.cardWidth+cardColumnGap), cardsTop + row*spec.rowPitch
}
