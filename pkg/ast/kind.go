package ast

// Kind is the discriminator of a syntax node. Rules switch on it instead of
// comparing grammar type names.
type Kind uint8

const (
	KindOther Kind = iota
	KindProgram
	KindFunctionDecl
	KindFunctionExpr
	KindArrowFunction
	KindMethod
	KindClassDecl
	KindClassExpr
	KindClassBody
	KindField
	KindParameters
	KindBlock
	KindVarDecl
	KindDeclarator
	KindExprStmt
	KindReturn
	KindThrow
	KindBreak
	KindContinue
	KindIf
	KindElse
	KindFor
	KindForIn
	KindWhile
	KindDoWhile
	KindSwitch
	KindSwitchBody
	KindCase
	KindDefault
	KindTry
	KindCatch
	KindFinally
	KindLabeled
	KindEmpty
	KindCall
	KindNew
	KindMember
	KindSubscript
	KindAssign
	KindAugmentedAssign
	KindUpdate
	KindIdent
	KindPropertyName
	KindShorthandProperty
	KindShorthandPattern
	KindLabel
	KindString
	KindTemplate
	KindTemplateSubstitution
	KindNumber
	KindBool
	KindNull
	KindUndefined
	KindRegex
	KindThis
	KindArray
	KindObject
	KindPair
	KindSpread
	KindObjectPattern
	KindArrayPattern
	KindPairPattern
	KindAssignPattern
	KindObjectAssignPattern
	KindRestPattern
	KindArguments
	KindParen
	KindBinary
	KindUnary
	KindTernary
	KindAwait
	KindYield
	KindSequence
	KindImport
	KindImportClause
	KindNamedImports
	KindImportSpecifier
	KindNamespaceImport
	KindExport
	KindComment
	KindError
)

var kindNames = [...]string{
	KindOther:                "other",
	KindProgram:              "program",
	KindFunctionDecl:         "function-declaration",
	KindFunctionExpr:         "function-expression",
	KindArrowFunction:        "arrow-function",
	KindMethod:               "method",
	KindClassDecl:            "class-declaration",
	KindClassExpr:            "class-expression",
	KindClassBody:            "class-body",
	KindField:                "field",
	KindParameters:           "parameters",
	KindBlock:                "block",
	KindVarDecl:              "variable-declaration",
	KindDeclarator:           "declarator",
	KindExprStmt:             "expression-statement",
	KindReturn:               "return",
	KindThrow:                "throw",
	KindBreak:                "break",
	KindContinue:             "continue",
	KindIf:                   "if",
	KindElse:                 "else",
	KindFor:                  "for",
	KindForIn:                "for-in",
	KindWhile:                "while",
	KindDoWhile:              "do-while",
	KindSwitch:               "switch",
	KindSwitchBody:           "switch-body",
	KindCase:                 "case",
	KindDefault:              "default",
	KindTry:                  "try",
	KindCatch:                "catch",
	KindFinally:              "finally",
	KindLabeled:              "labeled",
	KindEmpty:                "empty",
	KindCall:                 "call",
	KindNew:                  "new",
	KindMember:               "member",
	KindSubscript:            "subscript",
	KindAssign:               "assignment",
	KindAugmentedAssign:      "augmented-assignment",
	KindUpdate:               "update",
	KindIdent:                "identifier",
	KindPropertyName:         "property-name",
	KindShorthandProperty:    "shorthand-property",
	KindShorthandPattern:     "shorthand-pattern",
	KindLabel:                "label",
	KindString:               "string",
	KindTemplate:             "template",
	KindTemplateSubstitution: "template-substitution",
	KindNumber:               "number",
	KindBool:                 "bool",
	KindNull:                 "null",
	KindUndefined:            "undefined",
	KindRegex:                "regex",
	KindThis:                 "this",
	KindArray:                "array",
	KindObject:               "object",
	KindPair:                 "pair",
	KindSpread:               "spread",
	KindObjectPattern:        "object-pattern",
	KindArrayPattern:         "array-pattern",
	KindPairPattern:          "pair-pattern",
	KindAssignPattern:        "assignment-pattern",
	KindObjectAssignPattern:  "object-assignment-pattern",
	KindRestPattern:          "rest-pattern",
	KindArguments:            "arguments",
	KindParen:                "parenthesized",
	KindBinary:               "binary",
	KindUnary:                "unary",
	KindTernary:              "ternary",
	KindAwait:                "await",
	KindYield:                "yield",
	KindSequence:             "sequence",
	KindImport:               "import",
	KindImportClause:         "import-clause",
	KindNamedImports:         "named-imports",
	KindImportSpecifier:      "import-specifier",
	KindNamespaceImport:      "namespace-import",
	KindExport:               "export",
	KindComment:              "comment",
	KindError:                "error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "other"
}

// grammarKinds maps tree-sitter-javascript node types to kinds. Both the old
// ("function") and new ("function_expression") names of function expressions
// are accepted.
var grammarKinds = map[string]Kind{
	"program":                               KindProgram,
	"function_declaration":                  KindFunctionDecl,
	"generator_function_declaration":        KindFunctionDecl,
	"function":                              KindFunctionExpr,
	"function_expression":                   KindFunctionExpr,
	"generator_function":                    KindFunctionExpr,
	"arrow_function":                        KindArrowFunction,
	"method_definition":                     KindMethod,
	"class_declaration":                     KindClassDecl,
	"class":                                 KindClassExpr,
	"class_body":                            KindClassBody,
	"field_definition":                      KindField,
	"formal_parameters":                     KindParameters,
	"statement_block":                       KindBlock,
	"lexical_declaration":                   KindVarDecl,
	"variable_declaration":                  KindVarDecl,
	"variable_declarator":                   KindDeclarator,
	"expression_statement":                  KindExprStmt,
	"return_statement":                      KindReturn,
	"throw_statement":                       KindThrow,
	"break_statement":                       KindBreak,
	"continue_statement":                    KindContinue,
	"if_statement":                          KindIf,
	"else_clause":                           KindElse,
	"for_statement":                         KindFor,
	"for_in_statement":                      KindForIn,
	"while_statement":                       KindWhile,
	"do_statement":                          KindDoWhile,
	"switch_statement":                      KindSwitch,
	"switch_body":                           KindSwitchBody,
	"switch_case":                           KindCase,
	"switch_default":                        KindDefault,
	"try_statement":                         KindTry,
	"catch_clause":                          KindCatch,
	"finally_clause":                        KindFinally,
	"labeled_statement":                     KindLabeled,
	"empty_statement":                       KindEmpty,
	"call_expression":                       KindCall,
	"new_expression":                        KindNew,
	"member_expression":                     KindMember,
	"subscript_expression":                  KindSubscript,
	"assignment_expression":                 KindAssign,
	"augmented_assignment_expression":       KindAugmentedAssign,
	"update_expression":                     KindUpdate,
	"identifier":                            KindIdent,
	"property_identifier":                   KindPropertyName,
	"private_property_identifier":           KindPropertyName,
	"shorthand_property_identifier":         KindShorthandProperty,
	"shorthand_property_identifier_pattern": KindShorthandPattern,
	"statement_identifier":                  KindLabel,
	"string":                                KindString,
	"template_string":                       KindTemplate,
	"template_substitution":                 KindTemplateSubstitution,
	"number":                                KindNumber,
	"true":                                  KindBool,
	"false":                                 KindBool,
	"null":                                  KindNull,
	"undefined":                             KindUndefined,
	"regex":                                 KindRegex,
	"this":                                  KindThis,
	"array":                                 KindArray,
	"object":                                KindObject,
	"pair":                                  KindPair,
	"spread_element":                        KindSpread,
	"object_pattern":                        KindObjectPattern,
	"array_pattern":                         KindArrayPattern,
	"pair_pattern":                          KindPairPattern,
	"assignment_pattern":                    KindAssignPattern,
	"object_assignment_pattern":             KindObjectAssignPattern,
	"rest_pattern":                          KindRestPattern,
	"arguments":                             KindArguments,
	"parenthesized_expression":              KindParen,
	"binary_expression":                     KindBinary,
	"unary_expression":                      KindUnary,
	"ternary_expression":                    KindTernary,
	"await_expression":                      KindAwait,
	"yield_expression":                      KindYield,
	"sequence_expression":                   KindSequence,
	"import_statement":                      KindImport,
	"import_clause":                         KindImportClause,
	"named_imports":                         KindNamedImports,
	"import_specifier":                      KindImportSpecifier,
	"namespace_import":                      KindNamespaceImport,
	"export_statement":                      KindExport,
	"comment":                               KindComment,
	"ERROR":                                 KindError,
}

// KindOf returns the kind of a grammar node type.
func KindOf(grammarType string) Kind {
	if k, ok := grammarKinds[grammarType]; ok {
		return k
	}
	return KindOther
}

// IsFunction reports whether the kind introduces a function body.
func (k Kind) IsFunction() bool {
	switch k {
	case KindFunctionDecl, KindFunctionExpr, KindArrowFunction, KindMethod:
		return true
	}
	return false
}

// IsLoop reports whether the kind is an iteration statement.
func (k Kind) IsLoop() bool {
	switch k {
	case KindFor, KindForIn, KindWhile, KindDoWhile:
		return true
	}
	return false
}

// IsExit reports whether the kind unconditionally leaves the current statement sequence.
func (k Kind) IsExit() bool {
	switch k {
	case KindReturn, KindThrow, KindBreak, KindContinue:
		return true
	}
	return false
}
