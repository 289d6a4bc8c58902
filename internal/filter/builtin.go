package filter

import (
	"fmt"
	"io"
	"os"
)

// Builtins returns the filters shipped with the CLI. Hosts embedding the
// engine can register any subset of these alongside their own filters.
func Builtins() map[string]Filter {
	return map[string]Filter{
		"Concat": &Concat{},
		"Wrap":   &Wrap{},
	}
}

// stringOption fetches a named string option. Absent options yield "".
func stringOption(options map[string]Option, name string) (string, error) {
	opt, ok := options[name]
	if !ok {
		return "", nil
	}
	s, ok := opt.StringValue()
	if !ok {
		return "", fmt.Errorf("%s must be a string option", name)
	}
	return s, nil
}

// copyInputs appends the contents of each input file to w, in order.
func copyInputs(w io.Writer, inputPaths []string) error {
	for _, inputPath := range inputPaths {
		in, err := os.Open(inputPath)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, in)
		in.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// Concat concatenates its inputs in order. The optional string option
// "additional_text" is appended after the last input.
type Concat struct{}

func (c *Concat) Process(inputPaths []string, outputPath string, options map[string]Option) error {
	additionalText, err := stringOption(options, "additional_text")
	if err != nil {
		return err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := copyInputs(out, inputPaths); err != nil {
		out.Close()
		return err
	}
	if additionalText != "" {
		if _, err := io.WriteString(out, additionalText); err != nil {
			out.Close()
			return err
		}
	}
	return out.Close()
}

// Wrap concatenates its inputs between an optional "prefix" and "suffix"
// string option. With neither option set it behaves like Concat without
// additional text.
type Wrap struct{}

func (w *Wrap) Process(inputPaths []string, outputPath string, options map[string]Option) error {
	prefix, err := stringOption(options, "prefix")
	if err != nil {
		return err
	}
	suffix, err := stringOption(options, "suffix")
	if err != nil {
		return err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if prefix != "" {
		if _, err := io.WriteString(out, prefix); err != nil {
			out.Close()
			return err
		}
	}
	if err := copyInputs(out, inputPaths); err != nil {
		out.Close()
		return err
	}
	if suffix != "" {
		if _, err := io.WriteString(out, suffix); err != nil {
			out.Close()
			return err
		}
	}
	return out.Close()
}
