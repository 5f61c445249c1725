package pysource

// Argument is a reflected parameter as shown in a rendered signature.
type Argument struct {
	Name          string
	Annotation    string
	HasAnnotation bool
}

// Reflect lists d's parameters: ordinary ones in declaration order, then the
// positional variadic with a "*" prefix, then the keyword variadic with a
// "**" prefix. Defaults are not reflected.
func Reflect(d *Declaration) []Argument {
	args := make([]Argument, 0, len(d.Params))
	var positional, keyword *Parameter
	for i := range d.Params {
		p := &d.Params[i]
		switch p.Variadic {
		case VariadicPositional:
			positional = p
		case VariadicKeyword:
			keyword = p
		default:
			args = append(args, argument("", p))
		}
	}
	if positional != nil {
		args = append(args, argument("*", positional))
	}
	if keyword != nil {
		args = append(args, argument("**", keyword))
	}
	return args
}

func argument(prefix string, p *Parameter) Argument {
	return Argument{
		Name:          prefix + p.Name,
		Annotation:    p.Annotation,
		HasAnnotation: p.HasAnnotation,
	}
}
