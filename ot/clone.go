package ot

// Clone returns a deep copy of the font. Every structure the instancing
// machinery mutates is duplicated: outlines, metrics, control values, tuple
// variation lists, item variation stores, and feature variation records.
// Raw table bytes are shared, since they are never written to.
func (otf *Font) Clone() *Font {
	dup := &Font{
		Header: &FontHeader{FontType: otf.Header.FontType, TableCount: otf.Header.TableCount},
		tables: make(map[Tag]Table, len(otf.tables)),
	}
	for tag, t := range otf.tables {
		dup.tables[tag] = t
	}
	if otf.Head != nil {
		h := *otf.Head
		h.self = &h
		dup.Head = &h
		dup.tables[T("head")] = &h
	}
	if otf.MaxP != nil {
		m := *otf.MaxP
		m.self = &m
		dup.MaxP = &m
		dup.tables[T("maxp")] = &m
	}
	if otf.HHea != nil {
		h := *otf.HHea
		h.self = &h
		dup.HHea = &h
		dup.tables[T("hhea")] = &h
	}
	if otf.VHea != nil {
		v := *otf.VHea
		v.self = &v
		dup.VHea = &v
		dup.tables[T("vhea")] = &v
	}
	if otf.OS2 != nil {
		o := *otf.OS2
		o.self = &o
		dup.OS2 = &o
		dup.tables[T("OS/2")] = &o
	}
	if otf.Post != nil {
		p := *otf.Post
		p.self = &p
		dup.Post = &p
		dup.tables[T("post")] = &p
	}
	if otf.HMtx != nil {
		h := *otf.HMtx
		h.AdvanceWidths = append([]uint16(nil), otf.HMtx.AdvanceWidths...)
		h.LeftSideBearings = append([]int16(nil), otf.HMtx.LeftSideBearings...)
		h.self = &h
		dup.HMtx = &h
		dup.tables[T("hmtx")] = &h
	}
	if otf.Cvt != nil {
		c := *otf.Cvt
		c.Values = append([]int16(nil), otf.Cvt.Values...)
		c.self = &c
		dup.Cvt = &c
		dup.tables[T("cvt ")] = &c
	}
	if otf.Fvar != nil {
		f := *otf.Fvar
		f.Axes = append([]VariationAxis(nil), otf.Fvar.Axes...)
		f.Instances = make([]NamedInstance, len(otf.Fvar.Instances))
		for i, inst := range otf.Fvar.Instances {
			inst.Coords = append([]float64(nil), inst.Coords...)
			f.Instances[i] = inst
		}
		f.self = &f
		dup.Fvar = &f
		dup.tables[T("fvar")] = &f
	}
	if otf.Avar != nil {
		a := *otf.Avar
		a.Segments = make([][]SegmentMap, len(otf.Avar.Segments))
		for i, segs := range otf.Avar.Segments {
			a.Segments[i] = append([]SegmentMap(nil), segs...)
		}
		a.self = &a
		dup.Avar = &a
		dup.tables[T("avar")] = &a
	}
	if otf.Glyf != nil {
		g := *otf.Glyf
		g.Glyphs = make([]*Glyph, len(otf.Glyf.Glyphs))
		for i, gl := range otf.Glyf.Glyphs {
			g.Glyphs[i] = gl.clone()
		}
		g.self = &g
		dup.Glyf = &g
		dup.tables[T("glyf")] = &g
	}
	if otf.Gvar != nil {
		g := *otf.Gvar
		g.Variations = make([][]*TupleVariation, len(otf.Gvar.Variations))
		for i, vars := range otf.Gvar.Variations {
			g.Variations[i] = cloneTupleVariations(vars)
		}
		g.self = &g
		dup.Gvar = &g
		dup.tables[T("gvar")] = &g
	}
	if otf.Cvar != nil {
		c := *otf.Cvar
		c.Variations = cloneTupleVariations(otf.Cvar.Variations)
		c.self = &c
		dup.Cvar = &c
		dup.tables[T("cvar")] = &c
	}
	if otf.Mvar != nil {
		m := *otf.Mvar
		m.Records = append([]MvarRecord(nil), otf.Mvar.Records...)
		m.Store = otf.Mvar.Store.clone()
		m.self = &m
		dup.Mvar = &m
		dup.tables[T("MVAR")] = &m
	}
	if otf.GSub != nil {
		dup.GSub = otf.GSub.clone()
		dup.tables[T("GSUB")] = dup.GSub
	}
	if otf.GPos != nil {
		dup.GPos = otf.GPos.clone()
		dup.tables[T("GPOS")] = dup.GPos
	}
	dup.parseErrors = append([]FontError(nil), otf.parseErrors...)
	dup.parseWarnings = append([]FontWarning(nil), otf.parseWarnings...)
	return dup
}

func (g *Glyph) clone() *Glyph {
	if g == nil {
		return nil
	}
	dup := *g
	if g.Simple != nil {
		sg := *g.Simple
		sg.EndPts = append([]int(nil), g.Simple.EndPts...)
		sg.Points = append([]Point(nil), g.Simple.Points...)
		sg.flags = append([]uint8(nil), g.Simple.flags...)
		dup.Simple = &sg
	}
	if g.Composite != nil {
		cg := *g.Composite
		cg.Components = append([]Component(nil), g.Composite.Components...)
		dup.Composite = &cg
	}
	return &dup
}

func cloneTupleVariations(vars []*TupleVariation) []*TupleVariation {
	if vars == nil {
		return nil
	}
	dup := make([]*TupleVariation, len(vars))
	for i, tv := range vars {
		d := &TupleVariation{Axes: make(map[Tag]Support, len(tv.Axes))}
		for tag, sup := range tv.Axes {
			d.Axes[tag] = sup
		}
		if tv.Points != nil {
			d.Points = make([]*PointDelta, len(tv.Points))
			for j, p := range tv.Points {
				if p != nil {
					pd := *p
					d.Points[j] = &pd
				}
			}
		}
		if tv.Values != nil {
			d.Values = make([]*float64, len(tv.Values))
			for j, v := range tv.Values {
				if v != nil {
					vd := *v
					d.Values[j] = &vd
				}
			}
		}
		dup[i] = d
	}
	return dup
}

func (vs *ItemVariationStore) clone() *ItemVariationStore {
	if vs == nil {
		return nil
	}
	dup := &ItemVariationStore{Format: vs.Format}
	dup.Regions = make([]VarRegion, len(vs.Regions))
	for i, r := range vs.Regions {
		dup.Regions[i] = VarRegion{Axes: append([]RegionAxis(nil), r.Axes...)}
	}
	dup.Data = make([]*VarData, len(vs.Data))
	for i, vd := range vs.Data {
		if vd == nil {
			continue
		}
		d := &VarData{RegionIndexes: append([]uint16(nil), vd.RegionIndexes...)}
		d.Items = make([][]int32, len(vd.Items))
		for j, item := range vd.Items {
			d.Items[j] = append([]int32(nil), item...)
		}
		dup.Data[i] = d
	}
	return dup
}

func (t *LayoutTable) clone() *LayoutTable {
	dup := *t
	dup.FeatureList = make([]FeatureRecord, len(t.FeatureList))
	for i, fr := range t.FeatureList {
		dup.FeatureList[i] = FeatureRecord{Tag: fr.Tag, Feature: fr.Feature.clone()}
	}
	if t.FeatureVariations != nil {
		fv := &FeatureVariations{Version: t.FeatureVariations.Version}
		fv.Records = make([]*FeatureVariationRecord, len(t.FeatureVariations.Records))
		for i, rec := range t.FeatureVariations.Records {
			r := &FeatureVariationRecord{}
			r.Conditions = make([]*ConditionTable, len(rec.Conditions))
			for j, c := range rec.Conditions {
				cc := *c
				r.Conditions[j] = &cc
			}
			if rec.Substitution != nil {
				s := &FeatureSubstitution{Version: rec.Substitution.Version}
				s.Records = make([]SubstitutionRecord, len(rec.Substitution.Records))
				for j, sr := range rec.Substitution.Records {
					s.Records[j] = SubstitutionRecord{
						FeatureIndex: sr.FeatureIndex,
						Feature:      sr.Feature.clone(),
					}
				}
				r.Substitution = s
			}
			fv.Records[i] = r
		}
		dup.FeatureVariations = fv
	}
	dup.self = &dup
	return &dup
}

func (ft *FeatureTable) clone() *FeatureTable {
	if ft == nil {
		return nil
	}
	return &FeatureTable{
		Params:        append([]byte(nil), ft.Params...),
		LookupIndexes: append([]uint16(nil), ft.LookupIndexes...),
	}
}
