package parser

import "tplverify/internal/ast"

// ParseProgram parses a whole source file: a sequence of function
// declarations. Any other top-level construct is a syntax error; the
// well-formedness checker separately enforces the "exactly functions"
// shape rule (AnnotationFuncError) for constructs this parser does accept.
func (p *Parser) ParseProgram() *ast.Program {
	var fns []*ast.Function
	for !p.isAtEnd() {
		fn := p.parseFunction()
		if fn != nil {
			fns = append(fns, fn)
		} else {
			p.synchronize()
		}
	}
	return &ast.Program{Functions: fns}
}

func (p *Parser) parseFunction() *ast.Function {
	retType := p.parseDataType()
	start := p.consume(FUNCTION, "expected 'FUNCTION'")
	name, ok := p.consumeIdent("expected function name")
	if !ok {
		return nil
	}

	p.consume(LEFT_PAREN, "expected '(' after function name")
	var params []*ast.DeclStmt
	for !p.check(RIGHT_PAREN) && !p.isAtEnd() {
		params = append(params, p.parseDecl())
		if !p.match(COMMA) {
			break
		}
	}
	p.consume(RIGHT_PAREN, "expected ')' after parameter list")

	p.consume(LEFT_BRACE, "expected '{' to start function body")
	body := p.parseStatementsUntil(RIGHT_BRACE)
	end := p.consume(RIGHT_BRACE, "expected '}' to close function body")

	return &ast.Function{
		Pos:        p.makePos(start),
		EndPos:     p.makeEndPos(end),
		Name:       name,
		Params:     params,
		ReturnType: retType,
		Body:       body,
	}
}

// consumeIdent consumes an identifier token and returns its name.
func (p *Parser) consumeIdent(message string) (string, bool) {
	tok := p.consume(IDENTIFIER, message)
	if tok.Type == ILLEGAL {
		return "", false
	}
	return tok.Lexeme, true
}

func (p *Parser) parseDataType() ast.DataType {
	if p.match(INT_TYPE) {
		return ast.INT
	}
	if p.match(BOOL_TYPE) {
		return ast.BOOL
	}
	p.errorAtCurrent("expected 'INT' or 'BOOL'")
	return ast.UNTYPED
}

func (p *Parser) parseDecl() *ast.DeclStmt {
	start := p.peek()
	ty := p.parseDataType()
	name, _ := p.consumeIdent("expected variable name")
	return &ast.DeclStmt{Pos: p.makePos(start), EndPos: p.makeEndPos(p.previous()), Name: name, Type: ty}
}

// parseStatementsUntil consumes statements (including an optional leading
// "DECLARE(params);" bulk-declaration block) until the given terminator
// token type is reached.
func (p *Parser) parseStatementsUntil(terminator TokenType) []ast.Stmt {
	var stmts []ast.Stmt

	if p.check(DECLARE) {
		stmts = append(stmts, p.parseDeclareBlock()...)
	}

	for !p.check(terminator) && !p.isAtEnd() {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// parseDeclareBlock parses "DECLARE(params);" and expands it into one
// DeclStmt per parameter, equivalent to a sequence of individual
// "INT x;"/"BOOL b;" declarations.
func (p *Parser) parseDeclareBlock() []ast.Stmt {
	p.consume(DECLARE, "expected 'DECLARE'")
	p.consume(LEFT_PAREN, "expected '(' after 'DECLARE'")

	var decls []ast.Stmt
	for !p.check(RIGHT_PAREN) && !p.isAtEnd() {
		decls = append(decls, p.parseDecl())
		if !p.match(COMMA) {
			break
		}
	}
	p.consume(RIGHT_PAREN, "expected ')' after declared parameter list")
	p.consume(SEMICOLON, "expected ';' after 'DECLARE(...)'")
	return decls
}

func (p *Parser) parseStatement() ast.Stmt {
	switch {
	case p.check(INT_TYPE), p.check(BOOL_TYPE):
		d := p.parseDecl()
		p.consume(SEMICOLON, "expected ';' after declaration")
		return d
	case p.check(ASSUME):
		return p.parseAssumeStmt()
	case p.check(RETURN):
		return p.parseReturnStmt()
	case p.check(WHILE):
		return p.parseWhileStmt()
	case p.check(IF):
		return p.parseIfStmt()
	case p.check(AT_PRE), p.check(AT_POST), p.check(AT_LOOP):
		return p.parseAnnotationStmt()
	case p.check(NOP):
		p.advance()
		p.consume(SEMICOLON, "expected ';' after 'NOP'")
		return nil
	case p.check(IDENTIFIER):
		return p.parseAssignStmt()
	default:
		tok := p.peek()
		p.errorAtCurrent("expected a statement, found '" + tok.Lexeme + "'")
		p.advance()
		return nil
	}
}

func (p *Parser) parseAssignStmt() ast.Stmt {
	nameTok := p.consume(IDENTIFIER, "expected variable name")
	start := nameTok
	p.consume(ASSIGN, "expected ':=' in assignment")
	value := p.parseExpr()
	semi := p.consume(SEMICOLON, "expected ';' after assignment")

	return &ast.AssignStmt{
		Pos:    p.makePos(start),
		EndPos: p.makeEndPos(semi),
		Name:   nameTok.Lexeme,
		Value:  value,
	}
}

func (p *Parser) parseAssumeStmt() ast.Stmt {
	start := p.consume(ASSUME, "expected 'ASSUME'")
	cond := p.parseExpr()
	semi := p.consume(SEMICOLON, "expected ';' after 'ASSUME' statement")
	return &ast.AssumeStmt{Pos: p.makePos(start), EndPos: p.makeEndPos(semi), Cond: cond}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.consume(RETURN, "expected 'RETURN'")
	value := p.parseExpr()
	semi := p.consume(SEMICOLON, "expected ';' after 'RETURN' statement")
	return &ast.ReturnStmt{Pos: p.makePos(start), EndPos: p.makeEndPos(semi), Value: value}
}

func (p *Parser) parseAnnotationStmt() ast.Stmt {
	start := p.peek()
	var kind ast.AnnotationKind
	switch {
	case p.match(AT_PRE):
		kind = ast.Pre
	case p.match(AT_POST):
		kind = ast.Post
	case p.match(AT_LOOP):
		kind = ast.Loop
	}
	expr := p.parseExpr()
	semi := p.consume(SEMICOLON, "expected ';' after annotation")
	return &ast.AnnotationStmt{Pos: p.makePos(start), EndPos: p.makeEndPos(semi), Kind: kind, Expr: expr}
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	start := p.consume(WHILE, "expected 'WHILE'")
	p.consume(LEFT_PAREN, "expected '(' after 'WHILE'")
	cond := p.parseExpr()
	p.consume(RIGHT_PAREN, "expected ')' after while condition")
	p.consume(LEFT_BRACE, "expected '{' to start while body")
	body := p.parseStatementsUntil(RIGHT_BRACE)
	end := p.consume(RIGHT_BRACE, "expected '}' to close while body")

	return &ast.WhileStmt{
		Pos:    p.makePos(start),
		EndPos: p.makeEndPos(end),
		Cond:   cond,
		Body:   body,
		// Invariant is attached by the well-formedness checker, which
		// extracts the preceding @LOOP annotation from the enclosing block.
	}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.consume(IF, "expected 'IF'")
	p.consume(LEFT_PAREN, "expected '(' after 'IF'")
	cond := p.parseExpr()
	p.consume(RIGHT_PAREN, "expected ')' after if condition")
	p.consume(LEFT_BRACE, "expected '{' to start if body")
	thenBody := p.parseStatementsUntil(RIGHT_BRACE)
	p.consume(RIGHT_BRACE, "expected '}' to close if body")

	p.consume(ELSE, "expected 'ELSE' (every IF requires an ELSE)")
	p.consume(LEFT_BRACE, "expected '{' to start else body")
	elseBody := p.parseStatementsUntil(RIGHT_BRACE)
	end := p.consume(RIGHT_BRACE, "expected '}' to close else body")

	return &ast.IfStmt{
		Pos:    p.makePos(start),
		EndPos: p.makeEndPos(end),
		Cond:   cond,
		Then:   thenBody,
		Else:   elseBody,
	}
}
