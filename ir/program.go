package ir

// LookupInput returns the input attribute named name.
func (p *Program) LookupInput(name string) (Attribute, error) {
	for _, a := range p.Inputs {
		if a.Name == name {
			return a, nil
		}
	}
	return Attribute{}, Errorf(ErrLookupFailure, "input %q is not defined", name)
}

// LookupOutput returns the output attribute named name.
func (p *Program) LookupOutput(name string) (Attribute, error) {
	for _, a := range p.Outputs {
		if a.Name == name {
			return a, nil
		}
	}
	return Attribute{}, Errorf(ErrLookupFailure, "output %q is not defined", name)
}

// LookupParameter returns the type of the uniform parameter named name.
func (p *Program) LookupParameter(name string) (Type, error) {
	t, ok := p.Parameters[name]
	if !ok {
		return Type{}, Errorf(ErrLookupFailure, "parameter %q is not defined", name)
	}
	return t, nil
}

// LookupBuffer returns the buffer named name.
func (p *Program) LookupBuffer(name string) (Buffer, error) {
	b, ok := p.Buffers[name]
	if !ok {
		return Buffer{}, Errorf(ErrLookupFailure, "buffer %q is not defined", name)
	}
	return b, nil
}

// LookupTexture returns the texture named name.
func (p *Program) LookupTexture(name string) (Texture, error) {
	t, ok := p.Textures[name]
	if !ok {
		return Texture{}, Errorf(ErrLookupFailure, "texture %q is not defined", name)
	}
	return t, nil
}

// LookupStruct returns the struct definition named name.
func (p *Program) LookupStruct(name string) (Struct, error) {
	s, ok := p.Structs[name]
	if !ok {
		return Struct{}, Errorf(ErrLookupFailure, "struct %q is not defined", name)
	}
	return s, nil
}

// LookupFunction returns the user function named name.
func (p *Program) LookupFunction(name string) (Function, error) {
	f, ok := p.Functions[name]
	if !ok {
		return Function{}, Errorf(ErrLookupFailure, "function %q is not defined", name)
	}
	return f, nil
}
