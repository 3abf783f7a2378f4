package latex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
)

const sample = `\documentclass{article}
\usepackage{amsmath}
\title{Entanglement Notes}
\begin{document}
\maketitle
\begin{abstract}
We study \emph{entangled} states. % a private remark
\end{abstract}
\section{Introduction}
Bell showed \cite{bell1964} that $x^2$ matters.
\begin{equation}
  E = mc^2
  \label{eq:energy}
\end{equation}
\begin{align}
a &= b \\
c &= d
\end{align}
\begin{figure}[h]
\includegraphics[width=0.5\textwidth]{setup.png}
\caption{Setup of the experiment}
\end{figure}
Detection efficiency is 5\% here.
\end{document}
Trailing notes are ignored.`

func TestClean(t *testing.T) {
	text := Clean(sample)

	assert.Contains(t, text, "# Entanglement Notes")
	assert.Contains(t, text, "Abstract")
	assert.Contains(t, text, "We study entangled states.")
	assert.Contains(t, text, "## Introduction")
	assert.Contains(t, text, "Bell showed [bell1964] that MATH: x^2 matters.")
	assert.Contains(t, text, "EQUATION: E = mc^2")
	assert.Contains(t, text, "EQUATIONS: a &= b")
	assert.Contains(t, text, "Figure: Setup of the experiment")
	assert.Contains(t, text, "Detection efficiency is 5 here.")

	assert.NotContains(t, text, "private remark")
	assert.NotContains(t, text, "documentclass")
	assert.NotContains(t, text, "usepackage")
	assert.NotContains(t, text, "maketitle")
	assert.NotContains(t, text, "Trailing notes")
	assert.NotContains(t, text, `\`)
	assert.NotContains(t, text, "{")
}

func TestClean_Fragment(t *testing.T) {
	text := Clean(`\textbf{Bold \emph{nested}} words and a table
\begin{table}
\begin{tabular}{cc} 1 & 2 \end{tabular}
\caption{Measured rates}
\end{table}`)

	assert.Contains(t, text, "Bold nested words and a table")
	assert.Contains(t, text, "Table: Measured rates")
	assert.NotContains(t, text, "tabular")
}

func TestClean_DisplayMath(t *testing.T) {
	assert.Equal(t, "Energy EQUATION: E = h holds.", Clean(`Energy \[ E = h \nu \] holds.`))
	assert.Equal(t, "Sum EQUATION: a + b", Clean(`Sum $$a + b$$`))
}

func TestClean_EscapedDollar(t *testing.T) {
	assert.Equal(t, "It costs $5 and $6 per run.", Clean(`It costs \$5 and \$6 per run.`))
	assert.Equal(t, "Price $5 with MATH: x inline", Clean(`Price \$5 with $x$ inline`))
}

func TestClean_FigureWithoutCaption(t *testing.T) {
	text := Clean(`Before
\begin{figure}
\includegraphics[width=3in]{setup.png}
\end{figure}
After`)

	assert.Equal(t, "Before\n\nAfter", text)
	assert.NotContains(t, text, "setup.png")
}

func TestClean_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "one two\n\nthree", Clean("one    two\n\n\n\n\nthree\n"))
}

func TestNormaliser(t *testing.T) {
	n := New()
	assert.Equal(t, "latex", n.Name())
	assert.Contains(t, n.SupportedExtensions(), ".tex")
	assert.Contains(t, n.SupportedMIMETypes(), "text/plain")

	result, err := n.Normalise(context.Background(), &domain.RawFile{
		Path:    "/drafts/notes.tex",
		Ext:     ".tex",
		Content: []byte(`\section{Results} We measured $\alpha$.`),
	})
	require.NoError(t, err)
	assert.Contains(t, result.Text, "## Results")
	assert.Contains(t, result.Text, "We measured MATH:")
}

func TestNormalise_NilFile(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}
